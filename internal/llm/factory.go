package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/medtriage/internal/config"
)

// Provider names a supported LLM backend.
type Provider string

const (
	// ProviderGemini uses Google's Gemini API. Default.
	ProviderGemini Provider = "gemini"
	// ProviderAnthropic uses Anthropic's Messages API.
	ProviderAnthropic Provider = "anthropic"
)

// New creates the client selected by cfg.Provider.
// Supported providers: "gemini" (default), "anthropic", matched case-insensitively.
func New(ctx context.Context, cfg *config.LLMConfig) (Client, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(cfg.Provider))) {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.Model, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: gemini, anthropic)", cfg.Provider)
	}
}
