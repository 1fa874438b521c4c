package seltra

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// NormalizeLocale converts a language code to BCP 47 form (e.g., "es_ES" → "es-ES").
func NormalizeLocale(langCode string) string {
	return strings.ReplaceAll(strings.TrimSpace(langCode), "_", "-")
}

// BaseLanguage extracts the lower-case base language (e.g., "en" from "en_US").
// Codes the language package cannot parse are lower-cased and cut at the
// first separator.
func BaseLanguage(langCode string) string {
	code := NormalizeLocale(langCode)
	if code == "" {
		return ""
	}
	if tag, err := language.Parse(code); err == nil {
		base, _ := tag.Base()
		return base.String()
	}
	return strings.ToLower(strings.Split(code, "-")[0])
}

// ISO3 returns the ISO 639-3 code for a language (e.g., "es" → "spa").
// Unknown codes are returned lower-cased and unchanged.
func ISO3(langCode string) string {
	base, err := language.ParseBase(BaseLanguage(langCode))
	if err != nil {
		return strings.ToLower(langCode)
	}
	return base.ISO3()
}

// FromISO3 returns the shortest code for an ISO 639-3 code (e.g., "spa" → "es").
// The second result is false when the code is not a known language.
func FromISO3(code string) (string, bool) {
	base, err := language.ParseBase(strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return "", false
	}
	return base.String(), true
}

// GetLanguageName returns the English name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(langCode string) string {
	tag, err := language.Parse(NormalizeLocale(langCode))
	if err != nil {
		return langCode
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return langCode
}

// SameLanguage reports whether two codes share a base language.
func SameLanguage(a, b string) bool {
	return BaseLanguage(a) != "" && BaseLanguage(a) == BaseLanguage(b)
}
