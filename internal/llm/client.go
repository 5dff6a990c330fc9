// Package llm wraps hosted text-generation models behind a single prompt-in, text-out call.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the provider answers with no text.
var ErrEmptyResponse = errors.New("llm returned an empty response")

// Client sends one prompt and returns the raw generated text. Implementations are stateless and
// safe for concurrent use; there is no streaming and no conversation state.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name returns the provider name for logs.
	Name() string
}
