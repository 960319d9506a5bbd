package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	generativelanguage "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/googleapis/gax-go/v2"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// noRetry overrides the generated client's default 503 backoff so every
// Complete is a single request.
var noRetry = gax.WithRetry(func() gax.Retryer { return nil })

// GeminiClient calls Google's Gemini models over the Generative Language
// REST API.
type GeminiClient struct {
	client    *generativelanguage.GenerativeClient
	name      string
	maxTokens int
}

// NewGeminiClient builds the client. Extra options are appended after the
// API key, which lets tests point it at a local endpoint.
func NewGeminiClient(ctx context.Context, apiKey, model string, maxTokens int, opts ...option.ClientOption) (*GeminiClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := generativelanguage.NewGenerativeRESTClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, name: model, maxTokens: maxTokens}, nil
}

func (c *GeminiClient) Model() string { return "gemini/" + c.name }

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	req := &pb.GenerateContentRequest{
		Model: modelResource(c.name),
		Contents: []*pb.Content{{
			Role:  "user",
			Parts: []*pb.Part{{Data: &pb.Part_Text{Text: prompt}}},
		}},
	}
	if c.maxTokens > 0 {
		n := int32(c.maxTokens)
		req.GenerationConfig = &pb.GenerationConfig{MaxOutputTokens: &n}
	}

	resp, err := c.client.GenerateContent(ctx, req, noRetry)
	if err != nil {
		return "", geminiError(err)
	}
	text, ok := responseText(resp)
	if !ok {
		return "", &BackendError{Backend: "gemini", Kind: KindMalformed, Message: "no text candidates in response"}
	}
	return text, nil
}

func (c *GeminiClient) Close() error { return c.client.Close() }

func modelResource(name string) string {
	if strings.HasPrefix(name, "models/") {
		return name
	}
	return "models/" + name
}

// responseText joins the text parts of every candidate.
func responseText(resp *pb.GenerateContentResponse) (string, bool) {
	var parts []string
	for _, cand := range resp.GetCandidates() {
		for _, part := range cand.GetContent().GetParts() {
			if text := part.GetText(); text != "" {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

func geminiError(err error) *BackendError {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &BackendError{Backend: "gemini", Kind: kindForStatus(gerr.Code), StatusCode: gerr.Code, Message: gerr.Message, Err: err}
	}
	var aerr *apierror.APIError
	if errors.As(err, &aerr) && aerr.HTTPCode() > 0 {
		return &BackendError{Backend: "gemini", Kind: kindForStatus(aerr.HTTPCode()), StatusCode: aerr.HTTPCode(), Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return transportError("gemini", err)
	}

	// Errors without an HTTP response only carry their cause in the message.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "permissiondenied") || strings.Contains(msg, "unauthenticated"):
		return &BackendError{Backend: "gemini", Kind: KindAuth, Err: err}
	case strings.Contains(msg, "quota") || strings.Contains(msg, "resource exhausted") || strings.Contains(msg, "resourceexhausted"):
		return &BackendError{Backend: "gemini", Kind: KindRateLimit, Err: err}
	case strings.Contains(msg, "deadline"):
		return &BackendError{Backend: "gemini", Kind: KindTimeout, Err: err}
	}
	return &BackendError{Backend: "gemini", Kind: KindNetwork, Err: err}
}
