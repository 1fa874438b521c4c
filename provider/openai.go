package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ZaguanLabs/seltra"
	"github.com/sashabaranov/go-openai"
)

// OpenAI translates with an OpenAI-compatible chat completion API.
type OpenAI struct {
	client      *openai.Client
	hasKey      bool
	model       string
	temperature float32
	timeout     time.Duration
	desc        seltra.ProviderDescriptor
	logger      *slog.Logger
}

// NewOpenAI creates an OpenAI backend. ServiceURL, when set, replaces the
// API base URL so any compatible server can be used.
func NewOpenAI(cfg seltra.ProviderConfig, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.Default()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.ServiceURL != "" {
		config.BaseURL = cfg.ServiceURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(config),
		hasKey:      cfg.APIKey != "",
		model:       model,
		temperature: 0.3,
		timeout:     cfg.Timeout,
		desc:        seltra.DescriptorFromConfig(NameOpenAI, cfg, seltra.AnyLanguages()),
		logger:      logger.With("provider", NameOpenAI, "model", model),
	}
}

// Translate translates the request text.
func (p *OpenAI) Translate(ctx context.Context, req seltra.TranslateRequest) (string, error) {
	text, err := prepare(req)
	if err != nil {
		return "", err
	}
	if !p.hasKey {
		return "", seltra.NewError(seltra.ReasonServiceError, "no API key configured for openai", nil)
	}

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", p.classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", seltra.NewError(seltra.ReasonParseError, "no response from OpenAI", nil)
	}

	return parseCompletion(resp.Choices[0].Message.Content)
}

func (p *OpenAI) buildSystemPrompt(req seltra.TranslateRequest) string {
	sourceName := seltra.GetLanguageName(req.SourceLang)
	targetName := seltra.GetLanguageName(req.TargetLang)

	return fmt.Sprintf(`# Role
You are an expert native translator. You translate short passages from %s to %s with the fluency of a highly educated native speaker.

# Task
The user message is text someone selected on screen. Translate it into idiomatic %s.

# Style Guide
- **Natural Flow**: Avoid literal translations. Rephrase so it sounds natural to a native speaker.
- **Idioms**: Never translate idioms literally. Use natural %s equivalents.
- **Code Safety**: Do NOT translate URLs, email addresses, or code.
- **No Commentary**: Do not explain the translation or add notes.

# Format
Return a valid JSON object with a single key "translation" holding the translated text.
Example: { "translation": "translated text" }
- Do NOT wrap in Markdown code blocks.`, sourceName, targetName, targetName, targetName)
}

// parseCompletion extracts the translation from the model's JSON answer.
func parseCompletion(content string) (string, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		if s, ok := obj["translation"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), nil
		}

		// Fallback: first string value under any key
		for _, v := range obj {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), nil
			}
		}
	}

	return "", seltra.NewError(seltra.ReasonParseError, "invalid response format from OpenAI", nil)
}

func (p *OpenAI) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := seltra.NewError(seltra.ReasonServiceError, "OpenAI API call failed", err)
		e.Retryable = apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
		return e
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		e := seltra.NewError(seltra.ReasonServiceError, "OpenAI API call failed", err)
		e.Retryable = reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
		return e
	}

	return transportError("openai", err)
}

// IsAvailable lists models with a short timeout.
func (p *OpenAI) IsAvailable(ctx context.Context) bool {
	if !p.hasKey {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if _, err := p.client.ListModels(ctx); err != nil {
		p.logger.Debug("probe failed", "error", err)
		return false
	}
	return true
}

// SupportedLanguages returns the configured languages or any.
func (p *OpenAI) SupportedLanguages(context.Context) seltra.LanguageSet {
	return p.desc.Languages
}

// Descriptor returns the backend descriptor.
func (p *OpenAI) Descriptor() seltra.ProviderDescriptor {
	return p.desc
}

var _ seltra.Backend = (*OpenAI)(nil)
