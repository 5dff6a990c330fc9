package history

import (
	"context"

	"github.com/hyperjump/medtriage/internal/agent"
)

// ChatFlow answers chat messages with Process. It never fails, so the chat fallback is not used.
func (a *Agent) ChatFlow() agent.ChatFlow {
	return func(ctx context.Context, text string) (string, error) {
		return a.Process(ctx, text), nil
	}
}
