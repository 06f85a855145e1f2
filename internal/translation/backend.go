package translation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Default backend settings target a local Ollama server
const (
	DefaultProvider = "openai"
	DefaultBaseURL  = "http://localhost:11434/v1"
	DefaultAPIKey   = "ollama"
	DefaultModel    = "gemma3:12b"
)

// Backend sends a single-message prompt to a language model and returns
// the text of its reply
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Config holds backend connection settings
type Config struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	// Timeout bounds a single request; zero leaves the transport default
	Timeout time.Duration
}

// NewBackend creates the backend selected by cfg.Provider
func NewBackend(ctx context.Context, cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai", "ollama":
		return NewOpenAIBackend(cfg), nil
	case "gemini":
		return NewGeminiBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backend provider: %s", cfg.Provider)
	}
}

// OpenAIBackend talks to any OpenAI-compatible chat completion endpoint
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend creates a backend for an OpenAI-compatible server
func NewOpenAIBackend(cfg Config) *OpenAIBackend {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	} else {
		clientConfig.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Name returns the provider name
func (b *OpenAIBackend) Name() string {
	return "openai"
}

// Model returns the model identifier sent with each request
func (b *OpenAIBackend) Model() string {
	return b.model
}

// Complete sends prompt as a single user message
func (b *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned by model %s", b.model)
	}

	return resp.Choices[0].Message.Content, nil
}
