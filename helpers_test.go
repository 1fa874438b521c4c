package seltra

import (
	"context"
	"sync/atomic"
)

// fakeBackend is a configurable Backend for engine tests.
type fakeBackend struct {
	name         string
	translations map[string]string
	err          error
	available    bool
	panicProbe   bool
	panicOnCall  bool
	calls        atomic.Int32
	lastRequest  atomic.Pointer[TranslateRequest]
	block        chan struct{} // when set, Translate waits for it to close
	started      chan struct{} // when set, closed on the first Translate call
}

func newFakeBackend(name string) *fakeBackend {
	return &fakeBackend{
		name: name,
		translations: map[string]string{
			"Hello":       "Hola",
			"Hello World": "Hola Mundo",
		},
		available: true,
	}
}

func (f *fakeBackend) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if f.calls.Add(1) == 1 && f.started != nil {
		close(f.started)
	}
	f.lastRequest.Store(&req)

	if f.panicOnCall {
		panic("backend exploded")
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return "", f.err
	}
	if out, ok := f.translations[req.Text]; ok {
		return out, nil
	}
	return "[" + f.name + "] " + req.Text, nil
}

func (f *fakeBackend) IsAvailable(ctx context.Context) bool {
	if f.panicProbe {
		panic("probe exploded")
	}
	return f.available
}

func (f *fakeBackend) SupportedLanguages(ctx context.Context) LanguageSet {
	return Languages("en", "es", "fr")
}

func (f *fakeBackend) Descriptor() ProviderDescriptor {
	return ProviderDescriptor{
		Name:        f.name,
		Description: "fake " + f.name,
		Languages:   Languages("en", "es", "fr"),
	}
}

// fakeRegistry registers one fake backend per name. The backends are
// returned so tests can inspect them; every Build returns the same instance.
func fakeRegistry(names ...string) (*Registry, map[string]*fakeBackend) {
	r := NewRegistry()
	backends := make(map[string]*fakeBackend, len(names))
	for _, name := range names {
		b := newFakeBackend(name)
		backends[name] = b
		r.Register(name, ProviderConfig{Description: "fake " + name}, func(string, ProviderConfig) (Backend, error) {
			return b, nil
		})
	}
	return r, backends
}

// mockCache is a simple mock cache for testing
type mockCache struct {
	data map[string]string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]string)}
}

func (c *mockCache) Get(key string) (string, bool) {
	val, ok := c.data[key]
	return val, ok
}

func (c *mockCache) Set(key string, value string) error {
	c.data[key] = value
	return nil
}
