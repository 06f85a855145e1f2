package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/alpacatrans/internal/translation"
)

// Lister handles listing the models of a backend
type Lister struct {
	provider string
	baseURL  string
	client   *openai.Client
}

// NewLister creates a new model lister for the backend described by cfg
func NewLister(cfg translation.Config) *Lister {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = translation.DefaultAPIKey
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = translation.DefaultBaseURL
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = baseURL
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Lister{
		provider: strings.ToLower(cfg.Provider),
		baseURL:  baseURL,
		client:   openai.NewClientWithConfig(clientConfig),
	}
}

// ListModels returns the sorted model IDs served by the backend
func (l *Lister) ListModels(ctx context.Context) ([]string, error) {
	if l.provider == "gemini" {
		return nil, fmt.Errorf("model listing is only supported for OpenAI-compatible backends")
	}

	list, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, model := range list.Models {
		ids = append(ids, model.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// ListAvailableModels prints the backend's models to w, marking current
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer, current string) error {
	ids, err := l.ListModels(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Available models at %s:\n", l.baseURL)
	if len(ids) == 0 {
		fmt.Fprintln(w, "  No models found")
		return nil
	}
	for _, id := range ids {
		marker := " "
		if id == current {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %s\n", marker, id)
	}
	return nil
}
