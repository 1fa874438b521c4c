package seltra

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// Engine delegates translations to exactly one active backend.
//
// The active backend, its descriptor, the language pair and the
// per-provider overrides form one immutable state value. SwitchProvider
// and SetLanguages install a new value; a Translate call that already
// loaded the previous value finishes against it.
type Engine struct {
	registry *Registry
	cache    TranslationCache
	logger   *slog.Logger

	state    atomic.Pointer[engineState]
	switchMu sync.Mutex // serializes writers; readers never lock

	// construction-time settings, read once by NewEngine
	sourceLang string
	targetLang string
	overrides  map[string]ProviderConfig
}

type engineState struct {
	name       string
	scope      string // provider segment of cache keys
	backend    Backend
	sourceLang string
	targetLang string
	overrides  map[string]ProviderConfig // never mutated once installed
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLanguages sets the source and target languages.
func WithLanguages(source, target string) EngineOption {
	return func(e *Engine) {
		e.sourceLang = source
		e.targetLang = target
	}
}

// WithProviderConfig sets the configuration override used whenever the
// named provider is built by this engine.
func WithProviderConfig(name string, cfg ProviderConfig) EngineOption {
	return func(e *Engine) {
		e.overrides[name] = cfg
	}
}

// WithProviderConfigs sets several overrides at once.
func WithProviderConfigs(cfgs map[string]ProviderConfig) EngineOption {
	return func(e *Engine) {
		for name, cfg := range cfgs {
			e.overrides[name] = cfg
		}
	}
}

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) EngineOption {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine whose active backend is the provider
// registered as name. Unknown names are rejected with UNKNOWN_PROVIDER.
func NewEngine(registry *Registry, name string, opts ...EngineOption) (*Engine, error) {
	if registry == nil {
		return nil, NewError(ReasonUnexpected, "registry is required", nil)
	}

	e := &Engine{
		registry:   registry,
		logger:     slog.Default(),
		sourceLang: "en",
		targetLang: "es",
		overrides:  make(map[string]ProviderConfig),
	}

	for _, opt := range opts {
		opt(e)
	}

	backend, err := registry.Build(name, e.overrides[name])
	if err != nil {
		return nil, err
	}

	e.state.Store(&engineState{
		name:       name,
		scope:      e.cacheScope(name, e.overrides[name]),
		backend:    backend,
		sourceLang: e.sourceLang,
		targetLang: e.targetLang,
		overrides:  copyOverrides(e.overrides),
	})

	return e, nil
}

// Translate translates text with the active backend and the engine's
// language pair. It never panics and never returns a partial result.
func (e *Engine) Translate(ctx context.Context, text string) Result {
	return e.translate(ctx, e.state.Load(), text)
}

// TranslateWithProvider is Translate that also returns the name of the
// provider the call ran against.
func (e *Engine) TranslateWithProvider(ctx context.Context, text string) (Result, string) {
	st := e.state.Load()
	return e.translate(ctx, st, text), st.name
}

func (e *Engine) translate(ctx context.Context, st *engineState, text string) (result Result) {
	if strings.TrimSpace(text) == "" {
		return Failure(ReasonEmptyInput, "empty text provided")
	}

	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("translation panicked", "provider", st.name, "panic", p)
			result = Failure(ReasonUnexpected, fmt.Sprintf("unexpected error: %v", p))
		}
	}()

	var cacheKey string
	if e.cache != nil {
		cacheKey = CacheKey(HashText(text), st.scope, st.sourceLang, st.targetLang)
		if cached, ok := e.cache.Get(cacheKey); ok {
			e.logger.Debug("translation cache hit", "provider", st.name)
			return Success(cached)
		}
	}

	e.logger.Debug("translating", "provider", st.name, "source", st.sourceLang, "target", st.targetLang, "text", truncate(text, 50))

	translated, err := st.backend.Translate(ctx, TranslateRequest{
		Text:       text,
		SourceLang: st.sourceLang,
		TargetLang: st.targetLang,
	})
	if err != nil {
		result = FailureFrom(err)
		e.logger.Warn("translation failed", "provider", st.name, "reason", result.Reason(), "error", result.Message())
		return result
	}

	if e.cache != nil {
		if err := e.cache.Set(cacheKey, translated); err != nil {
			e.logger.Warn("caching translation failed", "error", &CacheError{Message: "set failed", Cause: err})
		}
	}

	return Success(translated)
}

// SwitchProvider replaces the active backend with a new one built from
// the registry defaults, the engine's stored override for name and cfg.
// On any error the previous backend stays active.
func (e *Engine) SwitchProvider(name string, cfg ProviderConfig) error {
	e.switchMu.Lock()
	defer e.switchMu.Unlock()

	old := e.state.Load()
	if !e.registry.Has(name) {
		e.logger.Error("unknown provider", "provider", name)
		return NewError(ReasonUnknownProvider, fmt.Sprintf("provider %q is not registered", name), ErrUnknownProvider)
	}

	override := old.overrides[name].Merge(cfg)
	backend, err := e.registry.Build(name, override)
	if err != nil {
		e.logger.Error("switching provider failed", "provider", name, "error", err)
		return err
	}

	overrides := copyOverrides(old.overrides)
	overrides[name] = override

	e.state.Store(&engineState{
		name:       name,
		scope:      e.cacheScope(name, override),
		backend:    backend,
		sourceLang: old.sourceLang,
		targetLang: old.targetLang,
		overrides:  overrides,
	})

	e.logger.Info("switched translation provider", "from", old.name, "to", name)
	return nil
}

// SetLanguages changes the language pair used by subsequent translations.
func (e *Engine) SetLanguages(source, target string) error {
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if source == "" || target == "" {
		return NewError(ReasonUnsupportedPair, "source and target languages are required", nil)
	}

	e.switchMu.Lock()
	defer e.switchMu.Unlock()

	old := e.state.Load()
	e.state.Store(&engineState{
		name:       old.name,
		scope:      old.scope,
		backend:    old.backend,
		sourceLang: source,
		targetLang: target,
		overrides:  old.overrides,
	})
	return nil
}

// Languages returns the current source and target languages.
func (e *Engine) Languages() (source, target string) {
	st := e.state.Load()
	return st.sourceLang, st.targetLang
}

// ActiveProvider returns the name of the active provider.
func (e *Engine) ActiveProvider() string {
	return e.state.Load().name
}

// Descriptor returns the descriptor of the active backend.
func (e *Engine) Descriptor() ProviderDescriptor {
	return e.state.Load().backend.Descriptor()
}

// IsAvailable probes the active backend. A panicking probe reports false.
func (e *Engine) IsAvailable(ctx context.Context) (ok bool) {
	st := e.state.Load()
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("availability check panicked", "provider", st.name, "panic", p)
			ok = false
		}
	}()
	return st.backend.IsAvailable(ctx)
}

// ProviderInfo describes the active backend, including liveness.
func (e *Engine) ProviderInfo(ctx context.Context) ProviderStatus {
	st := e.state.Load()
	return e.probe(ctx, st.name, st.backend, st.overrides[st.name])
}

// AvailableProviders builds and probes every registered provider.
// A provider that fails to build or whose probe panics is reported as
// unavailable; enumeration itself never fails.
func (e *Engine) AvailableProviders(ctx context.Context) map[string]ProviderStatus {
	st := e.state.Load()
	names := e.registry.Names()

	// Probes run on the caller's goroutine, one after another
	results := make(map[string]ProviderStatus, len(names))
	for _, name := range names {
		if name == st.name {
			results[name] = e.probe(ctx, name, st.backend, st.overrides[name])
			continue
		}
		results[name] = e.buildAndProbe(ctx, name, st.overrides[name])
	}
	return results
}

// WordCount returns the number of whitespace separated words in text.
func (e *Engine) WordCount(text string) int {
	return len(strings.Fields(text))
}

func (e *Engine) buildAndProbe(ctx context.Context, name string, override ProviderConfig) (status ProviderStatus) {
	status = e.fallbackStatus(name, override)
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("building provider panicked", "provider", name, "panic", p)
			status = e.fallbackStatus(name, override)
		}
	}()

	backend, err := e.registry.Build(name, override)
	if err != nil {
		e.logger.Warn("provider unavailable", "provider", name, "error", err)
		return status
	}
	return e.probe(ctx, name, backend, override)
}

func (e *Engine) probe(ctx context.Context, name string, backend Backend, override ProviderConfig) (status ProviderStatus) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("provider probe panicked", "provider", name, "panic", p)
			status = e.fallbackStatus(name, override)
		}
	}()

	desc := backend.Descriptor()
	desc.Languages = backend.SupportedLanguages(ctx)
	return ProviderStatus{
		ProviderDescriptor: desc,
		Available:          backend.IsAvailable(ctx),
	}
}

func (e *Engine) fallbackStatus(name string, override ProviderConfig) ProviderStatus {
	defaults, _ := e.registry.Defaults(name)
	return ProviderStatus{
		ProviderDescriptor: DescriptorFromConfig(name, defaults.Merge(override), LanguageSet{}),
		Available:          false,
	}
}

// cacheScope fingerprints the effective configuration of name so results
// from a different model or endpoint are never served from the cache.
func (e *Engine) cacheScope(name string, override ProviderConfig) string {
	defaults, _ := e.registry.Defaults(name)
	return CacheScope(name, defaults.Merge(override))
}

func copyOverrides(in map[string]ProviderConfig) map[string]ProviderConfig {
	out := make(map[string]ProviderConfig, len(in))
	for name, cfg := range in {
		out[name] = cfg
	}
	return out
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
