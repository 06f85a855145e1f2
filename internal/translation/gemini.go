package translation

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiBackend sends prompts to the Gemini API
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini backend. BaseURL overrides the API
// endpoint when set.
func NewGeminiBackend(ctx context.Context, cfg Config) (*GeminiBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("Gemini model is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiBackend{client: client, model: cfg.Model}, nil
}

// Name returns the provider name
func (b *GeminiBackend) Name() string {
	return "gemini"
}

// Complete sends prompt as a single user turn
func (b *GeminiBackend) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned by model %s", b.model)
	}
	return resp.Text(), nil
}
