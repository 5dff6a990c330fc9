// Package history answers questions about a user's past diagnoses by letting an OpenAI-compatible
// model call a get_history tool backed by the history service.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/medtriage/internal/config"
	"github.com/hyperjump/medtriage/internal/metrics"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"
)

// NoHistoryIntent is returned when the model neither calls the tool nor answers.
const NoHistoryIntent = "I couldn't determine what History information you're looking for. Please try rephrasing your question."

// ToolGetHistory is the only tool offered to the model.
const ToolGetHistory = "get_history"

var (
	// ErrNoChoices is returned when a completion has no choices.
	ErrNoChoices = errors.New("completion returned no choices")
	// ErrUnsupportedTool is returned for tool calls other than get_history.
	ErrUnsupportedTool = errors.New("unsupported function call")
)

var getHistoryTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        ToolGetHistory,
		Description: "Get My History",
		Strict:      true,
		Parameters: jsonschema.Definition{
			Type:                 jsonschema.Object,
			AdditionalProperties: false,
			Properties: map[string]jsonschema.Definition{
				"username": {
					Type:        jsonschema.String,
					Description: "The username to check.",
				},
			},
			Required: []string{"username"},
		},
	},
}

// ChatCompleter is the subset of *openai.Client used by Agent.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient creates a client for the ASI1 (OpenAI-compatible) endpoint in cfg.
func NewOpenAIClient(cfg *config.HistoryConfig) *openai.Client {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return openai.NewClientWithConfig(c)
}

// Agent runs the two-step tool-calling exchange.
type Agent struct {
	completer   ChatCompleter
	fetcher     Fetcher
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the agent logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithMetrics records requests, fallbacks and LLM outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithSampling overrides model, temperature and max tokens. Zero values keep the current setting.
func WithSampling(model string, temperature float32, maxTokens int) Option {
	return func(a *Agent) {
		if model != "" {
			a.model = model
		}
		if temperature > 0 {
			a.temperature = temperature
		}
		if maxTokens > 0 {
			a.maxTokens = maxTokens
		}
	}
}

// NewAgent creates an agent using asi1-mini at temperature 0.7 with 1024 max tokens by default.
func NewAgent(completer ChatCompleter, fetcher Fetcher, opts ...Option) *Agent {
	a := &Agent{
		completer:   completer,
		fetcher:     fetcher,
		model:       "asi1-mini",
		temperature: 0.7,
		maxTokens:   1024,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Process answers query. It never returns an error; failures are reported in the returned text.
func (a *Agent) Process(ctx context.Context, query string) string {
	a.metrics.Request("history_query")
	answer, err := a.process(ctx, query)
	if err != nil {
		a.logger.Error("error processing query", zap.Error(err))
		a.metrics.Fallback("history_error")
		return fmt.Sprintf("An error occurred while processing your request: %v", err)
	}
	return answer
}

func (a *Agent) process(ctx context.Context, query string) (string, error) {
	messages := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: query}}

	first, err := a.complete(ctx, messages, []openai.Tool{getHistoryTool})
	if err != nil {
		return "", err
	}
	if len(first.ToolCalls) == 0 {
		if first.Content != "" {
			return first.Content, nil
		}
		return NoHistoryIntent, nil
	}

	messages = append(messages, first)
	for _, call := range first.ToolCalls {
		a.logger.Info("executing tool",
			zap.String("function", call.Function.Name),
			zap.String("arguments", call.Function.Arguments),
		)
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: call.ID,
			Content:    a.execute(ctx, call),
		})
	}

	final, err := a.complete(ctx, messages, nil)
	if err != nil {
		return "", err
	}
	return final.Content, nil
}

func (a *Agent) complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error) {
	resp, err := a.completer.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err == nil && len(resp.Choices) == 0 {
		err = ErrNoChoices
	}
	a.metrics.LLMCall(err)
	if err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	return resp.Choices[0].Message, nil
}

// execute runs one tool call and returns the tool message content. Failures are reported to the
// model as {"error": ..., "status": "failed"}.
func (a *Agent) execute(ctx context.Context, call openai.ToolCall) string {
	result, err := a.callTool(ctx, call)
	if err != nil {
		a.logger.Warn("tool execution failed", zap.String("function", call.Function.Name), zap.Error(err))
		out, _ := json.Marshal(map[string]string{
			"error":  "Tool execution failed: " + err.Error(),
			"status": "failed",
		})
		return string(out)
	}
	return string(result)
}

func (a *Agent) callTool(ctx context.Context, call openai.ToolCall) (json.RawMessage, error) {
	if call.Function.Name != ToolGetHistory {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTool, call.Function.Name)
	}
	var args struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return a.fetcher.GetHistory(ctx, args.Username)
}
