package seltra

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRegistry_Names(t *testing.T) {
	registry, _ := fakeRegistry("libretranslate", "apertium", "google")

	want := []string{"apertium", "google", "libretranslate"}
	if got := registry.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if !registry.Has("google") {
		t.Error("google should be registered")
	}
	if registry.Has("deepl") {
		t.Error("deepl should not be registered")
	}
}

func TestRegistry_BuildMergesDefaults(t *testing.T) {
	var got ProviderConfig
	registry := NewRegistry()
	registry.Register("apertium", ProviderConfig{
		Timeout:          10 * time.Second,
		Description:      "Local offline translation using Apertium",
		RequiresInternet: Bool(false),
		LanguagePair:     "eng-spa",
	}, func(name string, cfg ProviderConfig) (Backend, error) {
		got = cfg
		return newFakeBackend(name), nil
	})

	_, err := registry.Build("apertium", ProviderConfig{Timeout: 3 * time.Second})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got.Timeout != 3*time.Second {
		t.Errorf("override timeout should win, got %v", got.Timeout)
	}
	if got.LanguagePair != "eng-spa" {
		t.Errorf("default language pair should be kept, got %q", got.LanguagePair)
	}
	if got.NeedsInternet() {
		t.Error("apertium should not need internet")
	}
}

func TestRegistry_BuildUnknown(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Build("nope", ProviderConfig{})
	if ReasonOf(err) != ReasonUnknownProvider {
		t.Errorf("expected UNKNOWN_PROVIDER, got %v", err)
	}
	if !errors.Is(err, ErrUnknownProvider) {
		t.Error("error should wrap ErrUnknownProvider")
	}
}

func TestRegistry_BuildFactoryError(t *testing.T) {
	registry := NewRegistry()
	registry.Register("openai", ProviderConfig{}, func(string, ProviderConfig) (Backend, error) {
		return nil, NewError(ReasonServiceError, "api key required", nil)
	})
	registry.Register("nil", ProviderConfig{}, func(string, ProviderConfig) (Backend, error) {
		return nil, nil
	})

	if _, err := registry.Build("openai", ProviderConfig{}); ReasonOf(err) != ReasonServiceError {
		t.Errorf("factory reason should survive wrapping, got %v", err)
	}
	if _, err := registry.Build("nil", ProviderConfig{}); err == nil {
		t.Error("a nil backend should be an error")
	}
}

func TestRegistry_DefaultsIsCopy(t *testing.T) {
	registry := NewRegistry()
	registry.Register("google", ProviderConfig{Languages: []string{"en", "es"}}, func(name string, _ ProviderConfig) (Backend, error) {
		return newFakeBackend(name), nil
	})

	defaults, ok := registry.Defaults("google")
	if !ok {
		t.Fatal("google should have defaults")
	}
	defaults.Languages[0] = "xx"

	again, _ := registry.Defaults("google")
	if again.Languages[0] != "en" {
		t.Error("Defaults should return a copy")
	}

	if _, ok := registry.Defaults("nope"); ok {
		t.Error("unknown name should have no defaults")
	}
}

func TestDescriptorFromConfig(t *testing.T) {
	cfg := ProviderConfig{
		Description:      "LibreTranslate",
		Timeout:          15 * time.Second,
		RequiresInternet: Bool(true),
	}

	desc := DescriptorFromConfig("libretranslate", cfg, AnyLanguages())
	if desc.Name != "libretranslate" || desc.Description != "LibreTranslate" {
		t.Errorf("unexpected descriptor: %+v", desc)
	}
	if !desc.Languages.IsAny() {
		t.Error("fallback languages should be used when none are configured")
	}

	cfg.Languages = []string{"en", "de"}
	desc = DescriptorFromConfig("libretranslate", cfg, AnyLanguages())
	if desc.Languages.IsAny() || !desc.Languages.Contains("de") {
		t.Errorf("configured languages should win, got %v", desc.Languages.Codes())
	}
}
