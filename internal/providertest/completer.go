package providertest

import (
	"context"
	"sync"

	"pathfinder-hq/waypoint/pkg/providers"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// MockCompleter is an in-process providers.Completer. By default it replies
// "mock response" with usage derived from the request.
type MockCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []providers.CompletionRequest
}

// NewMockCompleter creates a completer that always succeeds.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{reply: "mock response"}
}

// SetReply sets the reply content.
func (m *MockCompleter) SetReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
}

// SetError makes subsequent calls fail with err. nil restores success.
func (m *MockCompleter) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Name returns "mock".
func (m *MockCompleter) Name() string {
	return "mock"
}

// Complete records req and returns the configured outcome.
func (m *MockCompleter) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *req
	copied.Messages = append([]types.Message(nil), req.Messages...)
	m.requests = append(m.requests, copied)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}

	input := len(req.System)
	for _, msg := range req.Messages {
		input += len(msg.Content)
	}
	return &providers.Completion{
		Content:    m.reply,
		Model:      "mock-model",
		StopReason: "end_turn",
		Usage:      types.Usage{InputTokens: input / 4, OutputTokens: len(m.reply) / 4},
	}, nil
}

// Calls returns the number of Complete calls.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil.
func (m *MockCompleter) LastRequest() *providers.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	last := m.requests[len(m.requests)-1]
	return &last
}
