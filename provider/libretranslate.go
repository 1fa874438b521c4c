package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ZaguanLabs/seltra"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

var libreLanguages = []string{
	"af", "am", "ar", "as", "az", "be", "bg", "bn", "bs", "ca", "cs", "cy",
	"da", "de", "el", "en", "eo", "es", "et", "eu", "fa", "fi", "fr", "ga",
	"gl", "gu", "ha", "he", "hi", "hr", "hu", "ig", "is", "it", "ja", "jv",
	"ka", "km", "kn", "ko", "la", "lb", "lo", "lt", "lv", "mg", "mk", "ml",
	"mn", "mr", "mt", "my", "ne", "nl", "no", "or", "pa", "pl", "pt", "ro",
	"ru", "si", "sk", "sl", "sn", "so", "sq", "sr", "st", "su", "sv", "sw",
	"ta", "te", "th", "tl", "tr", "uk", "ur", "uz", "vi", "xh", "yo", "zh",
	"zu",
}

// LibreTranslate translates through a LibreTranslate instance.
type LibreTranslate struct {
	client       *resty.Client
	url          string
	languagesURL string
	apiKey       string
	timeout      time.Duration
	configured   bool // languages fixed by configuration
	desc         seltra.ProviderDescriptor
	logger       *slog.Logger

	mu        sync.Mutex
	languages seltra.LanguageSet
	fetched   bool
}

// NewLibreTranslate creates a LibreTranslate backend. The service URL must
// be an absolute http(s) URL.
func NewLibreTranslate(cfg seltra.ProviderConfig, logger *slog.Logger) (*LibreTranslate, error) {
	if logger == nil {
		logger = slog.Default()
	}

	u, err := url.Parse(cfg.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid libretranslate service url %q", cfg.ServiceURL)
	}

	desc := seltra.DescriptorFromConfig(NameLibreTranslate, cfg, seltra.Languages(libreLanguages...))

	return &LibreTranslate{
		client:       newHTTPClient(),
		url:          cfg.ServiceURL,
		languagesURL: languagesURL(u),
		apiKey:       cfg.APIKey,
		timeout:      cfg.Timeout,
		configured:   cfg.Languages != nil,
		desc:         desc,
		languages:    desc.Languages,
		logger:       logger.With("provider", NameLibreTranslate),
	}, nil
}

// languagesURL derives the /languages endpoint from the /translate one.
func languagesURL(u *url.URL) string {
	out := *u
	out.RawQuery = ""
	out.Path = strings.TrimSuffix(strings.TrimRight(out.Path, "/"), "/translate") + "/languages"
	return out.String()
}

// Translate translates the request text.
func (l *LibreTranslate) Translate(ctx context.Context, req seltra.TranslateRequest) (string, error) {
	text, err := prepare(req)
	if err != nil {
		return "", err
	}

	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	l.logger.Debug("translating", "source", req.SourceLang, "target", req.TargetLang)
	return l.translate(ctx, text, seltra.BaseLanguage(req.SourceLang), seltra.BaseLanguage(req.TargetLang))
}

func (l *LibreTranslate) translate(ctx context.Context, text, source, target string) (string, error) {
	form := map[string]string{
		"q":      text,
		"source": source,
		"target": target,
	}
	if l.apiKey != "" {
		form["api_key"] = l.apiKey
	}

	resp, err := l.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(l.url)
	if err != nil {
		return "", transportError("libretranslate", err)
	}
	if resp.IsError() {
		return "", statusError("libretranslate", resp)
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return "", parseError("libretranslate", "invalid response format")
	}
	translated := gjson.GetBytes(body, "translatedText")
	if !translated.Exists() {
		return "", parseError("libretranslate", "response has no translatedText")
	}

	out := strings.TrimSpace(translated.String())
	if out == "" {
		return "", parseError("libretranslate", "empty translation")
	}
	return out, nil
}

// IsAvailable translates "hello" with a short timeout.
func (l *LibreTranslate) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	_, err := l.translate(ctx, "hello", "en", "es")
	if err != nil {
		l.logger.Debug("probe failed", "error", err)
	}
	return err == nil
}

// SupportedLanguages asks the instance for its languages once. Until the
// query succeeds the configured or built-in list is returned.
func (l *LibreTranslate) SupportedLanguages(ctx context.Context) seltra.LanguageSet {
	if l.configured {
		return l.languages
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fetched {
		return l.languages
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	resp, err := l.client.R().SetContext(ctx).Get(l.languagesURL)
	if err != nil || resp.IsError() {
		l.logger.Debug("listing languages failed", "error", err)
		return l.languages
	}

	codes := gjson.GetBytes(resp.Body(), "#.code")
	if !codes.IsArray() || len(codes.Array()) == 0 {
		return l.languages
	}

	list := make([]string, 0, len(codes.Array()))
	for _, code := range codes.Array() {
		list = append(list, code.String())
	}
	l.languages = seltra.Languages(list...)
	l.fetched = true
	return l.languages
}

// Descriptor returns the backend descriptor.
func (l *LibreTranslate) Descriptor() seltra.ProviderDescriptor {
	return l.desc
}

var _ seltra.Backend = (*LibreTranslate)(nil)
