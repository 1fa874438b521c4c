package seltra

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// CacheKey generates a cache key from a text hash, the provider scope and the
// language pair. Translations differ per backend, so the provider is part of the key.
func CacheKey(hash, provider, sourceLang, targetLang string) string {
	return hash + ":" + provider + ":" + BaseLanguage(sourceLang) + ":" + BaseLanguage(targetLang)
}

// CacheScope returns the provider segment of a cache key: the provider name,
// followed by "@" and a short fingerprint when the configuration sets a
// model, endpoint, engine or fallback pair.
func CacheScope(provider string, cfg ProviderConfig) string {
	if cfg.Model == "" && cfg.ServiceURL == "" && cfg.Engine == "" && cfg.LanguagePair == "" {
		return provider
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{cfg.Model, cfg.ServiceURL, cfg.Engine, cfg.LanguagePair}, "\x00")))
	return provider + "@" + hex.EncodeToString(sum[:4])
}

// ScopeProvider returns the provider name of a cache scope.
func ScopeProvider(scope string) string {
	name, _, _ := strings.Cut(scope, "@")
	return name
}
