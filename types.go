package seltra

import (
	"sort"
	"strings"
	"time"
)

// AnyLanguage is the sentinel a backend reports when it accepts every language.
const AnyLanguage = "any"

// TranslateRequest contains the parameters for a single translation.
type TranslateRequest struct {
	Text       string // Text to translate
	SourceLang string // ISO 639-1 source language (e.g., "en")
	TargetLang string // ISO 639-1 target language (e.g., "es")
}

// LanguageSet is the set of languages a backend accepts.
// The zero value is an empty set.
type LanguageSet struct {
	any   bool
	codes []string
}

// AnyLanguages returns the set that accepts every language.
func AnyLanguages() LanguageSet {
	return LanguageSet{any: true}
}

// Languages returns a set of the given codes, normalized, deduplicated and sorted.
// Passing the AnyLanguage sentinel yields AnyLanguages.
func Languages(codes ...string) LanguageSet {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if code == AnyLanguage || code == "auto" {
			return AnyLanguages()
		}
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return LanguageSet{codes: out}
}

// IsAny reports whether the set accepts every language.
func (s LanguageSet) IsAny() bool {
	return s.any
}

// Codes returns the sorted language codes, or [AnyLanguage] for the any-set.
func (s LanguageSet) Codes() []string {
	if s.any {
		return []string{AnyLanguage}
	}
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

// Contains reports whether the set accepts the language.
func (s LanguageSet) Contains(code string) bool {
	if s.any {
		return true
	}
	code = BaseLanguage(code)
	i := sort.SearchStrings(s.codes, code)
	return i < len(s.codes) && s.codes[i] == code
}

// SupportsPair reports whether both languages of a pair are in the set.
func (s LanguageSet) SupportsPair(source, target string) bool {
	return s.Contains(source) && s.Contains(target)
}

// Len returns the number of codes, or -1 for the any-set.
func (s LanguageSet) Len() int {
	if s.any {
		return -1
	}
	return len(s.codes)
}

// ProviderDescriptor describes a constructed backend. It is immutable.
type ProviderDescriptor struct {
	Name             string
	Description      string
	RequiresInternet bool
	Languages        LanguageSet
	Timeout          time.Duration
}

// ProviderStatus is a descriptor together with the result of a liveness probe.
type ProviderStatus struct {
	ProviderDescriptor
	Available bool
}

// ProviderConfig is the descriptor bundle used to construct a backend.
// In an override, zero-valued fields keep the default.
type ProviderConfig struct {
	Timeout           time.Duration // Per-call timeout
	Description       string        // Human readable description
	RequiresInternet  *bool         // Whether the backend needs network access
	Engine            string        // Executable for offline backends
	LanguagePair      string        // Fallback pair for offline backends (e.g., "eng-spa")
	ServiceURL        string        // Endpoint for remote backends
	APIKey            string        // Credential for remote backends
	Model             string        // Model name for LLM backends
	Languages         []string      // Supported languages; nil keeps the backend default
	RequestsPerMinute int           // Client-side rate limit; 0 disables it
}

// Merge returns c with every non-zero field of override applied on top.
// Neither c nor override is modified.
func (c ProviderConfig) Merge(override ProviderConfig) ProviderConfig {
	out := c
	if override.Timeout > 0 {
		out.Timeout = override.Timeout
	}
	if override.Description != "" {
		out.Description = override.Description
	}
	if override.RequiresInternet != nil {
		v := *override.RequiresInternet
		out.RequiresInternet = &v
	} else if c.RequiresInternet != nil {
		v := *c.RequiresInternet
		out.RequiresInternet = &v
	}
	if override.Engine != "" {
		out.Engine = override.Engine
	}
	if override.LanguagePair != "" {
		out.LanguagePair = override.LanguagePair
	}
	if override.ServiceURL != "" {
		out.ServiceURL = override.ServiceURL
	}
	if override.APIKey != "" {
		out.APIKey = override.APIKey
	}
	if override.Model != "" {
		out.Model = override.Model
	}
	if override.Languages != nil {
		out.Languages = append([]string(nil), override.Languages...)
	} else if c.Languages != nil {
		out.Languages = append([]string(nil), c.Languages...)
	}
	if override.RequestsPerMinute > 0 {
		out.RequestsPerMinute = override.RequestsPerMinute
	}
	return out
}

// NeedsInternet reports the RequiresInternet flag, defaulting to true.
func (c ProviderConfig) NeedsInternet() bool {
	if c.RequiresInternet == nil {
		return true
	}
	return *c.RequiresInternet
}

// Bool returns a pointer to v, for ProviderConfig.RequiresInternet.
func Bool(v bool) *bool {
	return &v
}
