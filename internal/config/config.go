package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/dgallion1/researchmate/internal/llm"
)

// ErrMissingAPIKey is returned by Validate when the selected LLM provider
// has no API key.
var ErrMissingAPIKey = errors.New("llm api key is not configured")

type Config struct {
	Port string

	// Auth for the HTTP API. Empty disables auth.
	APIKey string

	// LLM backend
	LLMProvider string
	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string

	AnthropicAPIKey string
	AnthropicModel  string

	GeminiAPIKey string
	GeminiModel  string

	LLMTimeout   time.Duration
	LLMMaxTokens int

	// Prompt templates
	PromptsDir string

	// Uploads
	UploadDir      string
	MaxUploadBytes int64

	// Session state
	SessionTTL time.Duration

	// PDF
	PDFValidate          bool
	PDFFallbackPdftotext bool

	// Latency stats window
	StatsWindow time.Duration
}

var defaults = map[string]any{
	"PORT":                   "8090",
	"LLM_PROVIDER":           llm.ProviderGroq,
	"GROQ_BASE_URL":          llm.DefaultGroqBaseURL,
	"GROQ_MODEL":             llm.DefaultGroqModel,
	"ANTHROPIC_MODEL":        llm.DefaultAnthropicModel,
	"GEMINI_MODEL":           llm.DefaultGeminiModel,
	"LLM_TIMEOUT":            "120s",
	"LLM_MAX_TOKENS":         0,
	"PROMPTS_DIR":            "prompts",
	"UPLOAD_DIR":             "",
	"MAX_UPLOAD_BYTES":       int64(52428800), // 50MB
	"SESSION_TTL":            "2h",
	"PDF_VALIDATE":           false,
	"PDF_FALLBACK_PDFTOTEXT": true,
	"STATS_WINDOW":           "1h",
}

var secrets = []string{"RESEARCHMATE_API_KEY", "GROQ_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY"}

// Load reads configuration from the environment and, when configFile is set
// or researchmate.yaml exists in the working directory, from that file.
// Environment variables win over the file.
func Load(configFile string) (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for _, key := range secrets {
		v.SetDefault(key, "")
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("researchmate")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Port:   v.GetString("PORT"),
		APIKey: v.GetString("RESEARCHMATE_API_KEY"),

		LLMProvider: v.GetString("LLM_PROVIDER"),
		GroqAPIKey:  v.GetString("GROQ_API_KEY"),
		GroqBaseURL: v.GetString("GROQ_BASE_URL"),
		GroqModel:   v.GetString("GROQ_MODEL"),

		AnthropicAPIKey: v.GetString("ANTHROPIC_API_KEY"),
		AnthropicModel:  v.GetString("ANTHROPIC_MODEL"),

		GeminiAPIKey: v.GetString("GEMINI_API_KEY"),
		GeminiModel:  v.GetString("GEMINI_MODEL"),

		LLMTimeout:   v.GetDuration("LLM_TIMEOUT"),
		LLMMaxTokens: v.GetInt("LLM_MAX_TOKENS"),

		PromptsDir: v.GetString("PROMPTS_DIR"),

		UploadDir:      v.GetString("UPLOAD_DIR"),
		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),

		SessionTTL: v.GetDuration("SESSION_TTL"),

		PDFValidate:          v.GetBool("PDF_VALIDATE"),
		PDFFallbackPdftotext: v.GetBool("PDF_FALLBACK_PDFTOTEXT"),

		StatsWindow: v.GetDuration("STATS_WINDOW"),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = time.Hour
	}
	if cfg.LLMTimeout < 0 {
		cfg.LLMTimeout = 0
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}

	return cfg, nil
}

// LLM returns the backend options for the selected provider.
func (c Config) LLM() llm.Options {
	opts := llm.Options{Provider: c.LLMProvider, MaxTokens: c.LLMMaxTokens}
	switch c.LLMProvider {
	case llm.ProviderAnthropic:
		opts.APIKey, opts.Model = c.AnthropicAPIKey, c.AnthropicModel
	case llm.ProviderGemini:
		opts.APIKey, opts.Model = c.GeminiAPIKey, c.GeminiModel
	default:
		opts.APIKey, opts.Model, opts.BaseURL = c.GroqAPIKey, c.GroqModel, c.GroqBaseURL
	}
	return opts
}

// WriteTimeout bounds an HTTP response, which may wait on up to four
// sequential LLM calls. A zero LLMTimeout leaves calls unbounded, so the
// write deadline is disabled too.
func (c Config) WriteTimeout() time.Duration {
	if c.LLMTimeout <= 0 {
		return 0
	}
	return 4*c.LLMTimeout + 30*time.Second
}

// Validate fails fast on configuration that would only surface later as an
// opaque backend rejection.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case llm.ProviderGroq, llm.ProviderAnthropic, llm.ProviderGemini:
	default:
		return fmt.Errorf("LLM_PROVIDER %q is not one of groq, anthropic, gemini", c.LLMProvider)
	}
	if c.LLM().APIKey == "" {
		return fmt.Errorf("%w: set %s", ErrMissingAPIKey, keyVar(c.LLMProvider))
	}
	info, err := os.Stat(c.PromptsDir)
	if err != nil {
		return fmt.Errorf("PROMPTS_DIR: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("PROMPTS_DIR %s is not a directory", c.PromptsDir)
	}
	return nil
}

func keyVar(provider string) string {
	switch provider {
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}
