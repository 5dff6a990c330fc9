package llm

import (
	"context"
	"errors"
	"sync"
)

// ErrMockExhausted is returned when a Mock has no scripted reply left.
var ErrMockExhausted = errors.New("mock llm: no scripted reply left")

// MockReply is one scripted outcome.
type MockReply struct {
	Text string
	Err  error
}

// Mock is a scripted Client for tests and offline runs. Replies are returned in order; every
// prompt is recorded. Respond, when set, takes precedence over the script.
type Mock struct {
	mu      sync.Mutex
	replies []MockReply
	prompts []string
	Respond func(ctx context.Context, prompt string) (string, error)
}

// NewMock returns a Mock that answers with texts in order.
func NewMock(texts ...string) *Mock {
	m := &Mock{}
	for _, t := range texts {
		m.replies = append(m.replies, MockReply{Text: t})
	}
	return m
}

// Push appends scripted replies.
func (m *Mock) Push(replies ...MockReply) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
	return m
}

// Generate implements Client.
func (m *Mock) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	respond := m.Respond
	var next *MockReply
	if respond == nil && len(m.replies) > 0 {
		next = &m.replies[0]
		m.replies = m.replies[1:]
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if respond != nil {
		return respond(ctx, prompt)
	}
	if next == nil {
		return "", ErrMockExhausted
	}
	return next.Text, next.Err
}

// Name implements Client.
func (m *Mock) Name() string {
	return "mock"
}

// Prompts returns a copy of every prompt received.
func (m *Mock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Calls returns the number of Generate calls.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
