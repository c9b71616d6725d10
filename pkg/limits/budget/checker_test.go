package budget

import (
	"strings"
	"testing"

	"pathfinder-hq/waypoint/pkg/processing/tokens"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

func TestChecker_Check(t *testing.T) {
	checker := NewChecker(100)

	tests := []struct {
		name          string
		messages      []types.Message
		systemPrompt  string
		expectAllowed bool
		expectTokens  int
	}{
		{
			name:          "empty request",
			expectAllowed: true,
			expectTokens:  0,
		},
		{
			name: "well under limit",
			messages: []types.Message{
				{ID: "1", Role: types.RoleUser, Content: "Hello"},
			},
			systemPrompt:  "You are a career coach.",
			expectAllowed: true,
			expectTokens:  2 + 6,
		},
		{
			name: "exactly at limit",
			messages: []types.Message{
				{ID: "1", Role: types.RoleUser, Content: strings.Repeat("a", 200)},
			},
			systemPrompt:  strings.Repeat("b", 200),
			expectAllowed: true,
			expectTokens:  100,
		},
		{
			name: "one token over limit",
			messages: []types.Message{
				{ID: "1", Role: types.RoleUser, Content: strings.Repeat("a", 201)},
			},
			systemPrompt:  strings.Repeat("b", 200),
			expectAllowed: false,
			expectTokens:  101,
		},
		{
			name: "system prompt alone over limit",
			messages: []types.Message{
				{ID: "1", Role: types.RoleUser, Content: "hi"},
			},
			systemPrompt:  strings.Repeat("b", 800),
			expectAllowed: false,
			expectTokens:  201,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checker.Check(tt.messages, tt.systemPrompt)

			if result.Allowed != tt.expectAllowed {
				t.Errorf("Expected allowed=%v, got %v", tt.expectAllowed, result.Allowed)
			}
			if result.Tokens != tt.expectTokens {
				t.Errorf("Expected %d tokens, got %d", tt.expectTokens, result.Tokens)
			}
			if result.Limit != 100 {
				t.Errorf("Expected limit 100, got %d", result.Limit)
			}
			if tt.expectAllowed && result.Reason != "" {
				t.Errorf("Expected no reason for allowed request, got %q", result.Reason)
			}
			if !tt.expectAllowed {
				if result.Reason == "" {
					t.Error("Expected a reason for rejected request")
				}
				if !strings.Contains(result.Reason, "new conversation") {
					t.Errorf("Expected remediation hint in reason, got %q", result.Reason)
				}
				if result.Overage() != tt.expectTokens-100 {
					t.Errorf("Expected overage %d, got %d", tt.expectTokens-100, result.Overage())
				}
			}
		})
	}
}

func TestCheckTokenBudget_OversizedConversation(t *testing.T) {
	// A conversation of DefaultMaxContextTokens*4 + 100 characters.
	total := DefaultMaxContextTokens*4 + 100
	chunk := 9000
	var messages []types.Message
	for remaining := total; remaining > 0; remaining -= chunk {
		n := chunk
		if remaining < chunk {
			n = remaining
		}
		messages = append(messages, types.Message{ID: "m", Role: types.RoleUser, Content: strings.Repeat("x", n)})
	}

	result := CheckTokenBudget(messages, "")
	if result.Allowed {
		t.Fatalf("Expected oversized conversation to be rejected, tokens=%d", result.Tokens)
	}
	if result.Reason == "" {
		t.Error("Expected a rejection reason")
	}
}

func TestCheckTokenBudget_DefaultCeiling(t *testing.T) {
	messages := []types.Message{
		{ID: "1", Role: types.RoleUser, Content: strings.Repeat("x", DefaultMaxContextTokens*4)},
	}

	result := CheckTokenBudget(messages, "")
	if !result.Allowed {
		t.Errorf("Expected request at the default ceiling to be allowed, got %q", result.Reason)
	}

	result = CheckTokenBudget(messages, "x")
	if result.Allowed {
		t.Error("Expected request one token over the default ceiling to be rejected")
	}
}

func TestNewChecker_Defaults(t *testing.T) {
	if got := NewChecker(0).MaxContextTokens(); got != DefaultMaxContextTokens {
		t.Errorf("Expected default ceiling %d, got %d", DefaultMaxContextTokens, got)
	}
}

func TestNewChecker_WithEstimator(t *testing.T) {
	checker := NewChecker(10, WithEstimator(tokens.NewEstimator(2)))
	messages := []types.Message{{ID: "1", Role: types.RoleUser, Content: strings.Repeat("x", 22)}}

	result := checker.Check(messages, "")
	if result.Allowed || result.Tokens != 11 {
		t.Errorf("Expected 11 tokens at 2 chars per token to be rejected, got %+v", result)
	}
}
