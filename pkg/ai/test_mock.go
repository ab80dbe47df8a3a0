package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// MockOracle implements the Oracle interface for testing
type MockOracle struct {
	mu sync.Mutex

	// ResponseQueue is consumed in order. An entry starting with "ERROR"
	// fails the call and an empty entry yields ErrEmptyResponse.
	ResponseQueue []string
	// Respond computes the answer once the queue is exhausted.
	Respond func(prompt string) string
	// Duration is reported as the call timing when positive.
	Duration time.Duration

	UsedPrompts []string
	UsedOptions []Options
	CallCount   int

	currentIndex int
}

var _ Oracle = (*MockOracle)(nil)

// NewMockOracle creates a mock oracle that answers with responses in order.
func NewMockOracle(responses ...string) *MockOracle {
	return &MockOracle{ResponseQueue: responses}
}

// Generate implements the Oracle interface
func (m *MockOracle) Generate(ctx context.Context, prompt string, opts Options) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.UsedPrompts = append(m.UsedPrompts, prompt)
	m.UsedOptions = append(m.UsedOptions, opts)

	text := "mock response"
	switch {
	case m.currentIndex < len(m.ResponseQueue):
		text = m.ResponseQueue[m.currentIndex]
		m.currentIndex++
	case m.Respond != nil:
		text = m.Respond(prompt)
	}

	if strings.HasPrefix(text, "ERROR") {
		return nil, errors.New("mock error")
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Text:           text,
		Model:          opts.ModelName,
		Duration:       m.Duration,
		PromptTokens:   len(strings.Fields(prompt)),
		ResponseTokens: len(strings.Fields(text)),
	}, nil
}

// GetStatus implements the Oracle interface
func (m *MockOracle) GetStatus() *Status {
	return &Status{Connected: true, Backend: "mock-backend", Message: "Mock oracle is connected"}
}

// Prompts returns a copy of the prompts received so far.
func (m *MockOracle) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.UsedPrompts...)
}
