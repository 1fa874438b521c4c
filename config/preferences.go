package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ZaguanLabs/seltra"
)

// Preferences is the on-disk shape of config.json.
type Preferences struct {
	Translation TranslationPrefs         `json:"translation"`
	Providers   map[string]ProviderPrefs `json:"providers,omitempty"`
}

// TranslationPrefs holds the active provider and language pair.
type TranslationPrefs struct {
	Provider   string `json:"provider,omitempty"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang,omitempty"`
}

// ProviderPrefs holds per-provider settings. Timeout is in seconds.
type ProviderPrefs struct {
	APIKey            string   `json:"api_key,omitempty"`
	ServiceURL        string   `json:"service_url,omitempty"`
	Timeout           float64  `json:"timeout,omitempty"`
	Engine            string   `json:"engine,omitempty"`
	LanguagePair      string   `json:"language_pair,omitempty"`
	Model             string   `json:"model,omitempty"`
	Description       string   `json:"description,omitempty"`
	RequiresInternet  *bool    `json:"requires_internet,omitempty"`
	Languages         []string `json:"languages,omitempty"`
	RequestsPerMinute int      `json:"requests_per_minute,omitempty"`
}

func (p ProviderPrefs) toProviderConfig() seltra.ProviderConfig {
	return seltra.ProviderConfig{
		Timeout:           time.Duration(p.Timeout * float64(time.Second)),
		Description:       p.Description,
		RequiresInternet:  p.RequiresInternet,
		Engine:            p.Engine,
		LanguagePair:      p.LanguagePair,
		ServiceURL:        p.ServiceURL,
		APIKey:            p.APIKey,
		Model:             p.Model,
		Languages:         p.Languages,
		RequestsPerMinute: p.RequestsPerMinute,
	}
}

// LoadPreferences reads a preferences file. A missing file yields empty
// preferences.
func LoadPreferences(path string) (Preferences, error) {
	var p Preferences
	data, err := os.ReadFile(path) // #nosec G304 - path is the user's config file
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("reading preferences: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decoding preferences: %w", err)
	}
	return p, nil
}

// SavePreferences writes p to path atomically. The file may hold API keys
// and is created readable by the owner only.
func SavePreferences(path string, p Preferences) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing preferences: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing preferences: %w", err)
	}
	return nil
}

// SaveSelection records the provider and language pair in the preferences
// file at path, keeping every other setting already stored there.
func SaveSelection(path, provider, sourceLang, targetLang string) error {
	p, err := LoadPreferences(path)
	if err != nil {
		return err
	}
	p.Translation.Provider = provider
	p.Translation.SourceLang = sourceLang
	p.Translation.TargetLang = targetLang
	return SavePreferences(path, p)
}
