package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sethvargo/go-retry"

	"codeberg.org/snonux/alpacatrans/internal"
	"codeberg.org/snonux/alpacatrans/internal/dataset"
)

// rawPreviewLength caps how much of a broken response is logged
const rawPreviewLength = 1000

// Translator translates batches of records to Polish
type Translator struct {
	backend  Backend
	retry    RetryPolicy
	logger   *slog.Logger
	attempts int
}

// Option configures a Translator
type Option func(*Translator)

// WithRetryPolicy replaces the default two-attempt policy
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(t *Translator) {
		t.retry = policy
	}
}

// WithLogger sets the logger used for parse diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) {
		t.logger = logger
	}
}

// NewTranslator creates a new translator instance
func NewTranslator(backend Backend, opts ...Option) *Translator {
	t := &Translator{
		backend: backend,
		retry:   DefaultRetryPolicy(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attempts returns the number of backend calls made so far
func (t *Translator) Attempts() int {
	return t.attempts
}

// Translate returns the translated elements of batch in order. A nil slice
// with a nil error means the batch failed: the model did not produce JSON
// after all attempts, or produced JSON that is not an array. Backend errors
// are returned as-is.
func (t *Translator) Translate(ctx context.Context, batch []dataset.Record) ([]json.RawMessage, error) {
	prompt, err := BuildPrompt(batch)
	if err != nil {
		return nil, err
	}

	var (
		result  []json.RawMessage
		attempt int
	)
	err = retry.Do(ctx, t.retry(), func(ctx context.Context) error {
		attempt++
		t.attempts++

		content, err := t.backend.Complete(ctx, prompt)
		if err != nil {
			return err
		}

		items, err := parseArray(content)
		switch {
		case err == nil:
			result = items
			return nil
		case errors.Is(err, errNotArray):
			t.logger.Warn("Response is not a JSON array", "attempt", attempt)
			result = nil
			return nil
		default:
			t.logger.Warn("Failed to decode model response",
				"attempt", attempt,
				"error", err,
				"raw", internal.TruncateRunes(content, rawPreviewLength))
			return retry.RetryableError(err)
		}
	})

	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			t.logger.Warn("Giving up on batch after repeated malformed responses", "attempts", attempt)
			return nil, nil
		}
		return nil, fmt.Errorf("translation request failed: %w", err)
	}

	return result, nil
}
