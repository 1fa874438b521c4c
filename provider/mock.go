package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZaguanLabs/seltra"
)

// NameMock is the name tests register Mock under.
const NameMock = "mock"

// Mock is an in-memory backend for tests and demos.
type Mock struct {
	mu           sync.Mutex
	Translations map[string]string // Map of source text to translation
	Err          error             // Returned by Translate when set
	Available    bool              // Reported by IsAvailable
	callCount    int
	lastRequest  *seltra.TranslateRequest
}

// NewMock creates a mock backend with default translations.
func NewMock() *Mock {
	return &Mock{
		Translations: map[string]string{
			"Hello":        "Hola",
			"World":        "Mundo",
			"Hello World":  "Hola Mundo",
			"Good morning": "Buenos días",
		},
		Available: true,
	}
}

// Translate returns the mapped translation, or the bracketed text for
// unknown input.
func (m *Mock) Translate(ctx context.Context, req seltra.TranslateRequest) (string, error) {
	text, err := prepare(req)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.lastRequest = &req

	if m.Err != nil {
		return "", m.Err
	}
	if translation, ok := m.Translations[text]; ok {
		return translation, nil
	}
	return fmt.Sprintf("[%s]", text), nil
}

// IsAvailable reports the Available field.
func (m *Mock) IsAvailable(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Available
}

// SupportedLanguages accepts every language.
func (m *Mock) SupportedLanguages(context.Context) seltra.LanguageSet {
	return seltra.AnyLanguages()
}

// Descriptor describes the mock.
func (m *Mock) Descriptor() seltra.ProviderDescriptor {
	return seltra.ProviderDescriptor{
		Name:        NameMock,
		Description: "In-memory translations for testing",
		Languages:   seltra.AnyLanguages(),
	}
}

// CallCount returns the number of Translate calls that reached the mock.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the last request received, or nil.
func (m *Mock) LastRequest() *seltra.TranslateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

// Register adds the mock to r under NameMock; every build returns m.
func (m *Mock) Register(r *seltra.Registry) {
	r.Register(NameMock, seltra.ProviderConfig{
		Description:      "In-memory translations for testing",
		RequiresInternet: seltra.Bool(false),
	}, func(string, seltra.ProviderConfig) (seltra.Backend, error) {
		return m, nil
	})
}

var _ seltra.Backend = (*Mock)(nil)
