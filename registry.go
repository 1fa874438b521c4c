package seltra

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Backend is the interface every translation backend implements.
type Backend interface {
	// Translate translates req.Text. Every failure is a *TranslationError.
	Translate(ctx context.Context, req TranslateRequest) (string, error)

	// IsAvailable is a cheap liveness probe. It applies its own short timeout.
	IsAvailable(ctx context.Context) bool

	// SupportedLanguages returns the languages the backend accepts.
	SupportedLanguages(ctx context.Context) LanguageSet

	// Descriptor returns the static description of the backend.
	Descriptor() ProviderDescriptor
}

// Factory constructs a backend from a merged configuration.
type Factory func(name string, cfg ProviderConfig) (Backend, error)

type registryEntry struct {
	defaults ProviderConfig
	factory  Factory
}

// Registry holds the named backend factories known to the process.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

// Register adds a named factory with its default configuration.
// Registering an existing name replaces it.
func (r *Registry) Register(name string, defaults ProviderConfig, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = registryEntry{defaults: defaults, factory: factory}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns a copy of the default configuration for name.
func (r *Registry) Defaults(name string) (ProviderConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return ProviderConfig{}, false
	}
	return entry.defaults.Merge(ProviderConfig{}), true
}

// Build constructs the backend registered as name from defaults ⊕ override.
func (r *Registry) Build(name string, override ProviderConfig) (Backend, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, NewError(ReasonUnknownProvider, fmt.Sprintf("provider %q is not registered", name), ErrUnknownProvider)
	}

	backend, err := entry.factory(name, entry.defaults.Merge(override))
	if err != nil {
		return nil, fmt.Errorf("building provider %s: %w", name, err)
	}
	if backend == nil {
		return nil, NewError(ReasonUnexpected, fmt.Sprintf("provider %q factory returned nil", name), nil)
	}
	return backend, nil
}

// DescriptorFromConfig builds the descriptor a backend reports for a configuration.
func DescriptorFromConfig(name string, cfg ProviderConfig, fallback LanguageSet) ProviderDescriptor {
	languages := fallback
	if cfg.Languages != nil {
		languages = Languages(cfg.Languages...)
	}
	return ProviderDescriptor{
		Name:             name,
		Description:      cfg.Description,
		RequiresInternet: cfg.NeedsInternet(),
		Languages:        languages,
		Timeout:          cfg.Timeout,
	}
}
