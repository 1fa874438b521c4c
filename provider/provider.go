// Package provider implements the translation backends and the default
// registry that names them.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/seltra"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// Registered backend names.
const (
	NameApertium       = "apertium"
	NameGoogle         = "google"
	NameLibreTranslate = "libretranslate"
	NameOpenAI         = "openai"
)

// probeTimeout bounds every liveness probe.
const probeTimeout = 5 * time.Second

// Option configures the backends built by NewRegistry.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger handed to every backend.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewRegistry returns a registry holding every built-in backend with its
// default configuration. Backends configured with RequestsPerMinute are
// wrapped in a client-side rate limiter.
func NewRegistry(opts ...Option) *seltra.Registry {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	r := seltra.NewRegistry()
	r.Register(NameApertium, ApertiumDefaults(), func(_ string, cfg seltra.ProviderConfig) (seltra.Backend, error) {
		return limited(NewApertium(cfg, o.logger), cfg), nil
	})
	r.Register(NameGoogle, GoogleDefaults(), func(_ string, cfg seltra.ProviderConfig) (seltra.Backend, error) {
		return limited(NewGoogle(cfg, o.logger), cfg), nil
	})
	r.Register(NameLibreTranslate, LibreTranslateDefaults(), func(_ string, cfg seltra.ProviderConfig) (seltra.Backend, error) {
		b, err := NewLibreTranslate(cfg, o.logger)
		if err != nil {
			return nil, err
		}
		return limited(b, cfg), nil
	})
	r.Register(NameOpenAI, OpenAIDefaults(), func(_ string, cfg seltra.ProviderConfig) (seltra.Backend, error) {
		return limited(NewOpenAI(cfg, o.logger), cfg), nil
	})
	return r
}

// ApertiumDefaults returns the default configuration of the offline backend.
func ApertiumDefaults() seltra.ProviderConfig {
	return seltra.ProviderConfig{
		Timeout:          10 * time.Second,
		Description:      "Local offline translation using Apertium",
		RequiresInternet: seltra.Bool(false),
		Engine:           "apertium",
		LanguagePair:     "eng-spa",
	}
}

// GoogleDefaults returns the default configuration of the Google backend.
func GoogleDefaults() seltra.ProviderConfig {
	return seltra.ProviderConfig{
		Timeout:          15 * time.Second,
		Description:      "Google Translate API (requires API key for high volume)",
		RequiresInternet: seltra.Bool(true),
	}
}

// LibreTranslateDefaults returns the default configuration of the LibreTranslate backend.
func LibreTranslateDefaults() seltra.ProviderConfig {
	return seltra.ProviderConfig{
		Timeout:          15 * time.Second,
		Description:      "LibreTranslate - Free and open source translation",
		RequiresInternet: seltra.Bool(true),
		ServiceURL:       "https://libretranslate.de/translate",
	}
}

// OpenAIDefaults returns the default configuration of the OpenAI-compatible backend.
func OpenAIDefaults() seltra.ProviderConfig {
	return seltra.ProviderConfig{
		Timeout:          30 * time.Second,
		Description:      "OpenAI-compatible LLM translation (requires API key)",
		RequiresInternet: seltra.Bool(true),
		Model:            "gpt-4o-mini",
	}
}

func limited(b seltra.Backend, cfg seltra.ProviderConfig) seltra.Backend {
	if cfg.RequestsPerMinute <= 0 {
		return b
	}
	return seltra.NewRateLimitedBackend(b, seltra.RateLimitConfig{RequestsPerMinute: cfg.RequestsPerMinute})
}

// prepare trims the request text and rejects empty input.
func prepare(req seltra.TranslateRequest) (string, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", seltra.NewError(seltra.ReasonEmptyInput, "empty text provided", nil)
	}
	return text, nil
}

// withTimeout applies d to ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func newHTTPClient() *resty.Client {
	return resty.New().SetHeader("User-Agent", seltra.UserAgent())
}

// transportError classifies a failed HTTP round trip.
func transportError(service string, err error) error {
	reason := seltra.ReasonOf(err)
	if reason != seltra.ReasonTimeout {
		reason = seltra.ReasonNetworkError
	}
	return seltra.NewError(reason, service+" request failed", err)
}

// statusError reports a non-2xx answer. 429 and 5xx are retryable.
func statusError(service string, resp *resty.Response) error {
	msg := fmt.Sprintf("%s returned %s", service, resp.Status())
	if detail := gjson.GetBytes(resp.Body(), "error"); detail.Exists() {
		msg += ": " + detail.String()
	}
	e := seltra.NewError(seltra.ReasonServiceError, msg, nil)
	e.Retryable = resp.StatusCode() == 429 || resp.StatusCode() >= 500
	return e
}

func parseError(service, msg string) error {
	return seltra.NewError(seltra.ReasonParseError, service+": "+msg, nil)
}

// plainText decodes entities and strips markup from a response to a
// format=html request, whose input was escaped before sending.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
