package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// DefaultGroqBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultGroqBaseURL = "https://api.groq.com/openai/v1/"

// GroqClient talks to any OpenAI-compatible chat completions endpoint,
// Groq by default.
type GroqClient struct {
	client    openai.Client
	model     string
	maxTokens int
}

func NewGroqClient(apiKey, baseURL, model string, maxTokens int) *GroqClient {
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	return &GroqClient{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
			option.WithMaxRetries(0),
		),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *GroqClient) Model() string { return "groq/" + c.model }

func (c *GroqClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &BackendError{
				Backend:    "groq",
				Kind:       kindForStatus(apiErr.StatusCode),
				StatusCode: apiErr.StatusCode,
				Err:        err,
			}
		}
		return "", transportError("groq", err)
	}
	if len(resp.Choices) == 0 {
		return "", &BackendError{Backend: "groq", Kind: KindMalformed, Message: "no choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *GroqClient) Close() error { return nil }
