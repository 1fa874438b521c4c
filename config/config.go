// Package config loads seltra's settings from built-in defaults, a .env
// file, the environment and the user's preferences file, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZaguanLabs/seltra"
	"github.com/ZaguanLabs/seltra/provider"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	appDirName    = "seltra"
	prefsFileName = "config.json"
	envFileName   = ".env"

	// EnvFileVar names an alternative .env file.
	EnvFileVar = "SELTRA_ENV_FILE"
)

// Config holds the resolved settings.
type Config struct {
	Provider   string `env:"SELTRA_PROVIDER"`
	SourceLang string `env:"SELTRA_SOURCE_LANG"`
	TargetLang string `env:"SELTRA_TARGET_LANG"`

	LogLevel  string `env:"SELTRA_LOG_LEVEL"`
	LogToFile bool   `env:"SELTRA_LOG_FILE"`

	SelectionCommand string        `env:"SELTRA_SELECTION_COMMAND"`
	CursorCommand    string        `env:"SELTRA_CURSOR_COMMAND"`
	PollInterval     time.Duration `env:"SELTRA_POLL_INTERVAL"`
	MinLength        int           `env:"SELTRA_MIN_LENGTH"`
	MaxLength        int           `env:"SELTRA_MAX_LENGTH"`

	RedisURL        string        `env:"SELTRA_REDIS_URL"`
	CacheTTL        time.Duration `env:"SELTRA_CACHE_TTL"`
	CacheMaxEntries int           `env:"SELTRA_CACHE_MAX_ENTRIES"`

	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string `env:"OPENAI_BASE_URL"`
	OpenAIModel       string `env:"SELTRA_OPENAI_MODEL"`
	GoogleAPIKey      string `env:"SELTRA_GOOGLE_API_KEY"`
	LibreTranslateURL string `env:"SELTRA_LIBRETRANSLATE_URL"`
	LibreTranslateKey string `env:"SELTRA_LIBRETRANSLATE_API_KEY"`
	ApertiumPair      string `env:"SELTRA_APERTIUM_PAIR"`
	RequestsPerMinute int    `env:"SELTRA_REQUESTS_PER_MINUTE"`

	// Dir is the configuration directory holding config.json, .env and logs.
	Dir string `env:"-"`

	// Providers holds per-provider overrides. Only names the registry knows
	// are present.
	Providers map[string]seltra.ProviderConfig `env:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Provider:         provider.NameApertium,
		SourceLang:       "en",
		TargetLang:       "es",
		LogLevel:         "info",
		SelectionCommand: "xsel",
		CursorCommand:    "xdotool",
		PollInterval:     500 * time.Millisecond,
		MinLength:        1,
		MaxLength:        500,
		CacheTTL:         24 * time.Hour,
		CacheMaxEntries:  1000,
		Providers:        map[string]seltra.ProviderConfig{},
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	Dir     string            // Config directory; default $XDG_CONFIG_HOME/seltra
	EnvFile string            // .env path; default $SELTRA_ENV_FILE, then <Dir>/.env
	Environ map[string]string // Environment; nil reads the process environment
	Known   []string          // Accepted provider names; nil uses the built-in backends
	Logger  *slog.Logger
}

// Load resolves the configuration. A missing .env or preferences file is
// not an error; an unreadable preferences file is logged and skipped.
func Load(opts LoadOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	environ := opts.Environ
	if environ == nil {
		environ = processEnviron()
	}

	cfg := Default()

	dir, err := resolveDir(opts.Dir, environ)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir

	// .env values never override the real environment
	merged := make(map[string]string, len(environ))
	if path := resolveEnvFile(opts.EnvFile, environ, dir); path != "" {
		values, err := godotenv.Read(path)
		if err != nil {
			logger.Warn("reading env file failed", "path", path, "error", err)
		} else {
			logger.Debug("loaded env file", "path", path, "keys", len(values))
			for k, v := range values {
				merged[k] = v
			}
		}
	}
	for k, v := range environ {
		merged[k] = v
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.applyEnvProviders()

	known := opts.Known
	if known == nil {
		known = builtinProviders
	}

	prefs, err := LoadPreferences(cfg.PrefsPath())
	if err != nil {
		logger.Warn("ignoring preferences file", "path", cfg.PrefsPath(), "error", err)
	} else {
		cfg.applyPreferences(prefs, known, logger)
	}

	return cfg, nil
}

var builtinProviders = []string{
	provider.NameApertium,
	provider.NameGoogle,
	provider.NameLibreTranslate,
	provider.NameOpenAI,
}

// PrefsPath returns the preferences file path.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.Dir, prefsFileName)
}

// LogPath returns the rotating log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, "translator.log")
}

// ProviderConfig returns the override for name, or the zero value.
func (c *Config) ProviderConfig(name string) seltra.ProviderConfig {
	return c.Providers[name]
}

// applyEnvProviders folds provider credentials from the environment into
// the overrides map.
func (c *Config) applyEnvProviders() {
	c.mergeProvider(provider.NameOpenAI, seltra.ProviderConfig{
		APIKey:     c.OpenAIAPIKey,
		ServiceURL: c.OpenAIBaseURL,
		Model:      c.OpenAIModel,
	})
	c.mergeProvider(provider.NameGoogle, seltra.ProviderConfig{APIKey: c.GoogleAPIKey})
	c.mergeProvider(provider.NameLibreTranslate, seltra.ProviderConfig{
		ServiceURL: c.LibreTranslateURL,
		APIKey:     c.LibreTranslateKey,
	})
	c.mergeProvider(provider.NameApertium, seltra.ProviderConfig{LanguagePair: c.ApertiumPair})

	if c.RequestsPerMinute > 0 {
		for _, name := range []string{provider.NameGoogle, provider.NameLibreTranslate, provider.NameOpenAI} {
			c.mergeProvider(name, seltra.ProviderConfig{RequestsPerMinute: c.RequestsPerMinute})
		}
	}
}

func (c *Config) mergeProvider(name string, override seltra.ProviderConfig) {
	if isZero(override) {
		return
	}
	c.Providers[name] = c.Providers[name].Merge(override)
}

func isZero(cfg seltra.ProviderConfig) bool {
	return cfg.Timeout == 0 && cfg.Description == "" && cfg.RequiresInternet == nil &&
		cfg.Engine == "" && cfg.LanguagePair == "" && cfg.ServiceURL == "" &&
		cfg.APIKey == "" && cfg.Model == "" && cfg.Languages == nil && cfg.RequestsPerMinute == 0
}

func (c *Config) applyPreferences(p Preferences, known []string, logger *slog.Logger) {
	t := p.Translation
	if t.Provider != "" {
		if contains(known, t.Provider) {
			c.Provider = t.Provider
		} else {
			logger.Warn("ignoring unknown provider in preferences", "provider", t.Provider)
		}
	}
	if t.SourceLang != "" {
		c.SourceLang = t.SourceLang
	}
	if t.TargetLang != "" {
		c.TargetLang = t.TargetLang
	}

	for name, pp := range p.Providers {
		if !contains(known, name) {
			logger.Warn("ignoring settings for unknown provider", "provider", name)
			continue
		}
		c.mergeProvider(name, pp.toProviderConfig())
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func resolveDir(dir string, environ map[string]string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if xdg := environ["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	if home := environ["HOME"]; home != "" {
		return filepath.Join(home, ".config", appDirName), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

func resolveEnvFile(path string, environ map[string]string, dir string) string {
	candidates := []string{path, environ[EnvFileVar], filepath.Join(dir, envFileName)}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		} else if !errors.Is(err, fs.ErrNotExist) {
			return p // let godotenv report it
		}
	}
	return ""
}

func processEnviron() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
