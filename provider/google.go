package provider

import (
	"context"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/ZaguanLabs/seltra"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	// googleFreeURL is the keyless web endpoint.
	googleFreeURL = "https://translate.googleapis.com/translate_a/single"
	// googleCloudURL is the Cloud Translation v2 endpoint, used with an API key.
	googleCloudURL = "https://translation.googleapis.com/language/translate/v2"
)

var googleLanguages = []string{
	"af", "am", "ar", "as", "az", "be", "bg", "bn", "bs", "ca", "cs", "cy",
	"da", "de", "el", "en", "eo", "es", "et", "eu", "fa", "fi", "fr", "ga",
	"gd", "gl", "gu", "ha", "haw", "he", "hi", "hmn", "hr", "ht", "hu", "hy",
	"id", "ig", "is", "it", "ja", "jv", "ka", "kk", "km", "kn", "ko", "ku",
	"ky", "la", "lb", "lo", "lt", "lv", "mg", "mi", "mk", "ml", "mn", "mr",
	"ms", "mt", "my", "ne", "nl", "no", "or", "pa", "pl", "ps", "pt", "ro",
	"ru", "sd", "si", "sk", "sl", "sm", "sn", "so", "sq", "sr", "st", "su",
	"sv", "sw", "ta", "te", "tg", "th", "tl", "tr", "uk", "ur", "uz", "vi",
	"xh", "yi", "yo", "zh", "zu",
}

// Google translates through Google Translate. Without an API key it uses
// the free web endpoint; with one it uses Cloud Translation v2.
type Google struct {
	client    *resty.Client
	url       string
	apiKey    string
	timeout   time.Duration
	languages seltra.LanguageSet
	desc      seltra.ProviderDescriptor
	logger    *slog.Logger
}

// NewGoogle creates a Google backend from a merged configuration.
func NewGoogle(cfg seltra.ProviderConfig, logger *slog.Logger) *Google {
	if logger == nil {
		logger = slog.Default()
	}

	url := cfg.ServiceURL
	if url == "" {
		url = googleFreeURL
		if cfg.APIKey != "" {
			url = googleCloudURL
		}
	}

	languages := seltra.Languages(googleLanguages...)
	desc := seltra.DescriptorFromConfig(NameGoogle, cfg, languages)

	return &Google{
		client:    newHTTPClient(),
		url:       url,
		apiKey:    cfg.APIKey,
		timeout:   cfg.Timeout,
		languages: desc.Languages,
		desc:      desc,
		logger:    logger.With("provider", NameGoogle),
	}
}

// Translate translates the request text.
func (g *Google) Translate(ctx context.Context, req seltra.TranslateRequest) (string, error) {
	text, err := prepare(req)
	if err != nil {
		return "", err
	}

	ctx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	g.logger.Debug("translating", "source", req.SourceLang, "target", req.TargetLang, "cloud", g.apiKey != "")
	if g.apiKey != "" {
		return g.translateCloud(ctx, text, req.SourceLang, req.TargetLang)
	}
	return g.translateFree(ctx, text, req.SourceLang, req.TargetLang)
}

func (g *Google) translateFree(ctx context.Context, text, source, target string) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     source,
			"tl":     target,
			"dt":     "t",
			"q":      text,
		}).
		Get(g.url)
	if err != nil {
		return "", transportError("google", err)
	}
	if resp.IsError() {
		return "", statusError("google", resp)
	}

	return parseFreeResponse(resp.Body())
}

// parseFreeResponse joins the translated segments of a translate_a/single
// answer, which is a nested array whose first element lists
// [translated, original, ...] segments.
func parseFreeResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", parseError("google", "invalid response format")
	}
	segments := gjson.GetBytes(body, "0")
	if !segments.IsArray() {
		return "", parseError("google", "failed to parse translation response")
	}

	var b strings.Builder
	segments.ForEach(func(_, segment gjson.Result) bool {
		if segment.IsArray() {
			b.WriteString(segment.Get("0").String())
		}
		return true
	})

	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", parseError("google", "failed to parse translation response")
	}
	return out, nil
}

func (g *Google) translateCloud(ctx context.Context, text, source, target string) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.apiKey).
		SetFormData(map[string]string{
			"q":      html.EscapeString(text),
			"source": seltra.BaseLanguage(source),
			"target": seltra.BaseLanguage(target),
			"format": "html",
		}).
		Post(g.url)
	if err != nil {
		return "", transportError("google", err)
	}
	if resp.IsError() {
		return "", statusError("google", resp)
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return "", parseError("google", "invalid response format")
	}
	translated := gjson.GetBytes(body, "data.translations.0.translatedText")
	if !translated.Exists() {
		return "", parseError("google", "response has no translatedText")
	}

	out := strings.TrimSpace(plainText(translated.String()))
	if out == "" {
		return "", parseError("google", "empty translation")
	}
	return out, nil
}

// IsAvailable translates "hello" with a short timeout.
func (g *Google) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var err error
	if g.apiKey != "" {
		_, err = g.translateCloud(ctx, "hello", "en", "es")
	} else {
		_, err = g.translateFree(ctx, "hello", "en", "es")
	}
	if err != nil {
		g.logger.Debug("probe failed", "error", err)
	}
	return err == nil
}

// SupportedLanguages returns the configured or built-in language list.
func (g *Google) SupportedLanguages(context.Context) seltra.LanguageSet {
	return g.languages
}

// Descriptor returns the backend descriptor.
func (g *Google) Descriptor() seltra.ProviderDescriptor {
	return g.desc
}

var _ seltra.Backend = (*Google)(nil)
