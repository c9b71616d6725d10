package providers

import (
	"context"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// Completer is the contract the admission pipeline calls for one LLM turn.
type Completer interface {
	// Complete sends req and returns the model's reply. Errors are typed:
	// RateLimitError and OverloadedError are transient, the rest are not.
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)

	// Name returns the provider name used in logs and metrics.
	Name() string
}

// CompletionRequest is a provider-neutral completion request.
type CompletionRequest struct {
	// Model overrides the client's default model when set.
	Model string

	// System is the system prompt.
	System string

	// Messages is the conversation, oldest first.
	Messages []types.Message

	// MaxTokens overrides the client's default completion limit when > 0.
	MaxTokens int
}

// Completion is a provider-neutral completion result.
type Completion struct {
	// Content is the concatenated text of the reply.
	Content string

	// Model is the model that produced the reply.
	Model string

	// StopReason is the provider's stop reason (e.g. "end_turn").
	StopReason string

	// Usage is the token usage reported by the provider.
	Usage types.Usage
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req *CompletionRequest) (*Completion, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req *CompletionRequest) (*Completion, error) {
	return f(ctx, req)
}

// Name returns "func".
func (f CompleterFunc) Name() string {
	return "func"
}
