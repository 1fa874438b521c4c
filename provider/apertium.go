package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ZaguanLabs/seltra"
	"github.com/ZaguanLabs/seltra/internal/command"
)

// pairListTimeout bounds the `apertium -l` query.
const pairListTimeout = 5 * time.Second

// fallbackPairs is used when the installed pair list cannot be read.
var fallbackPairs = []string{"eng-spa", "spa-eng", "eng-fra", "fra-eng", "eng-cat", "cat-eng"}

// fallbackApertiumLanguages is reported when no pair maps to a known language.
var fallbackApertiumLanguages = []string{"en", "es", "fr", "de", "it", "pt", "ca"}

// Apertium translates offline by running the apertium executable.
type Apertium struct {
	engine      string
	defaultPair string
	timeout     time.Duration
	languages   []string
	desc        seltra.ProviderDescriptor
	logger      *slog.Logger
}

// NewApertium creates an Apertium backend from a merged configuration.
func NewApertium(cfg seltra.ProviderConfig, logger *slog.Logger) *Apertium {
	if logger == nil {
		logger = slog.Default()
	}
	engine := cfg.Engine
	if engine == "" {
		engine = "apertium"
	}
	return &Apertium{
		engine:      engine,
		defaultPair: cfg.LanguagePair,
		timeout:     cfg.Timeout,
		languages:   cfg.Languages,
		desc:        seltra.DescriptorFromConfig(NameApertium, cfg, seltra.LanguageSet{}),
		logger:      logger.With("provider", NameApertium),
	}
}

// Translate pipes the text through `apertium <pair>`.
func (a *Apertium) Translate(ctx context.Context, req seltra.TranslateRequest) (string, error) {
	text, err := prepare(req)
	if err != nil {
		return "", err
	}

	pair, err := a.resolvePair(ctx, req.SourceLang, req.TargetLang)
	if err != nil {
		return "", err
	}

	a.logger.Debug("translating", "pair", pair, "chars", len(text))
	out, err := command.Run(ctx, a.timeout, text, a.engine, pair)
	if err != nil {
		return "", a.classify(err)
	}
	return strings.TrimSpace(out), nil
}

// resolvePair picks src-tgt, then tgt-src, then the configured default pair.
func (a *Apertium) resolvePair(ctx context.Context, source, target string) (string, error) {
	src, tgt := seltra.ISO3(source), seltra.ISO3(target)
	pair := src + "-" + tgt
	reverse := tgt + "-" + src

	pairs := a.Pairs(ctx)
	switch {
	case slices.Contains(pairs, pair):
		return pair, nil
	case slices.Contains(pairs, reverse):
		return reverse, nil
	case a.defaultPair != "":
		a.logger.Debug("language pair not installed, using default", "pair", pair, "default", a.defaultPair)
		return a.defaultPair, nil
	}
	return "", seltra.NewError(seltra.ReasonUnsupportedPair,
		fmt.Sprintf("unsupported language pair: %s-%s", source, target), nil)
}

// Pairs lists the installed language pairs, or a static list when the
// query fails.
func (a *Apertium) Pairs(ctx context.Context) []string {
	out, err := command.Run(ctx, pairListTimeout, "", a.engine, "-l")
	if err != nil {
		a.logger.Debug("listing language pairs failed", "error", err)
		return append([]string(nil), fallbackPairs...)
	}

	var pairs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			pairs = append(pairs, line)
		}
	}
	return pairs
}

// IsAvailable runs `apertium -V`.
func (a *Apertium) IsAvailable(ctx context.Context) bool {
	return command.Available(ctx, probeTimeout, a.engine, "-V")
}

// SupportedLanguages derives the languages from the installed pairs.
func (a *Apertium) SupportedLanguages(ctx context.Context) seltra.LanguageSet {
	if a.languages != nil {
		return seltra.Languages(a.languages...)
	}

	var codes []string
	for _, pair := range a.Pairs(ctx) {
		source, target, ok := strings.Cut(pair, "-")
		if !ok {
			continue
		}
		for _, part := range []string{source, target} {
			if code, ok := seltra.FromISO3(part); ok {
				codes = append(codes, code)
			}
		}
	}
	if len(codes) == 0 {
		return seltra.Languages(fallbackApertiumLanguages...)
	}
	return seltra.Languages(codes...)
}

// Descriptor returns the backend descriptor.
func (a *Apertium) Descriptor() seltra.ProviderDescriptor {
	return a.desc
}

func (a *Apertium) classify(err error) error {
	var exitErr *command.ExitError
	if errors.As(err, &exitErr) {
		msg := exitErr.Stderr
		if msg == "" {
			msg = "translation failed"
		}
		return seltra.NewError(seltra.ReasonUnexpected, "translation error: "+msg, err)
	}

	switch seltra.ReasonOf(err) {
	case seltra.ReasonTimeout:
		a.logger.Error("translation timed out", "timeout", a.timeout)
		return seltra.NewError(seltra.ReasonTimeout, "translation timeout", err)
	case seltra.ReasonToolUnavailable:
		a.logger.Error("executable not found, please install Apertium", "engine", a.engine)
		return seltra.NewError(seltra.ReasonToolUnavailable, a.engine+" not installed", err)
	}
	return seltra.NewError(seltra.ReasonUnexpected, "unexpected error", err)
}

var _ seltra.Backend = (*Apertium)(nil)
