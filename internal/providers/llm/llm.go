package llm

import (
	"context"
	"errors"
)

var ErrEmptyCompletion = errors.New("completion returned no content")

// Provider returns the generated text for a single prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Close() error
}
