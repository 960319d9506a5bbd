package llm

import (
	"context"
	"errors"
	"fmt"
)

// Supported providers.
const (
	ProviderGroq      = "groq"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Default models per provider.
const (
	DefaultGroqModel      = "llama3-70b-8192"
	DefaultAnthropicModel = "claude-haiku-4-5-20251001"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

// ErrNoAPIKey is returned by New when the provider has no key configured.
var ErrNoAPIKey = errors.New("llm api key is empty")

// Options selects and configures a backend.
type Options struct {
	Provider  string
	APIKey    string
	BaseURL   string // OpenAI-compatible providers only
	Model     string
	MaxTokens int
}

// New builds the backend for opts.Provider.
func New(ctx context.Context, opts Options) (Backend, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", opts.Provider, ErrNoAPIKey)
	}
	switch opts.Provider {
	case ProviderGroq, "":
		return NewGroqClient(opts.APIKey, opts.BaseURL, orDefault(opts.Model, DefaultGroqModel), opts.MaxTokens), nil
	case ProviderAnthropic:
		return NewAnthropicClient(opts.APIKey, orDefault(opts.Model, DefaultAnthropicModel), opts.MaxTokens), nil
	case ProviderGemini:
		c, err := NewGeminiClient(ctx, opts.APIKey, orDefault(opts.Model, DefaultGeminiModel), opts.MaxTokens)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
