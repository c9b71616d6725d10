package tokens

import (
	"strings"
	"testing"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{name: "empty text", text: "", expected: 0},
		{name: "single char", text: "a", expected: 1},
		{name: "exactly four chars", text: "abcd", expected: 1},
		{name: "five chars rounds up", text: "Hello", expected: 2},
		{name: "43 chars", text: "The quick brown fox jumps over the lazy dog", expected: 11},
		{name: "multi-byte characters count once", text: "héllo", expected: 2},
		{name: "long text", text: strings.Repeat("x", 4001), expected: 1001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateTokens(tt.text)
			if got != tt.expected {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.expected)
			}
		})
	}
}

func TestEstimateTokens_Monotonic(t *testing.T) {
	prev := 0
	for n := 0; n <= 200; n++ {
		got := EstimateTokens(strings.Repeat("y", n))
		if got < prev {
			t.Fatalf("estimate decreased at length %d: %d < %d", n, got, prev)
		}
		prev = got
	}
}

func TestEstimateMessagesTokens(t *testing.T) {
	if got := EstimateMessagesTokens(nil); got != 0 {
		t.Errorf("Expected 0 for nil messages, got %d", got)
	}
	if got := EstimateMessagesTokens([]types.Message{}); got != 0 {
		t.Errorf("Expected 0 for empty messages, got %d", got)
	}

	messages := []types.Message{
		{ID: "1", Role: types.RoleUser, Content: "Hello"},
		{ID: "2", Role: types.RoleAssistant, Content: "The quick brown fox jumps over the lazy dog"},
		{ID: "3", Role: types.RoleUser, Content: "abcd"},
	}

	want := 0
	for _, m := range messages {
		want += EstimateTokens(m.Content)
	}
	if got := EstimateMessagesTokens(messages); got != want {
		t.Errorf("EstimateMessagesTokens = %d, want %d", got, want)
	}
	if want != 14 {
		t.Errorf("Expected 14 total tokens, got %d", want)
	}
}

func TestEstimateMessagesTokens_RoleIndependent(t *testing.T) {
	user := []types.Message{{ID: "a", Role: types.RoleUser, Content: "same content here"}}
	assistant := []types.Message{{ID: "a", Role: types.RoleAssistant, Content: "same content here"}}

	if EstimateMessagesTokens(user) != EstimateMessagesTokens(assistant) {
		t.Error("Expected estimate to be independent of role")
	}
}

func TestNewEstimator_CustomRatio(t *testing.T) {
	est := NewEstimator(2)
	if got := est.EstimateText("Hello"); got != 3 {
		t.Errorf("Expected 3 tokens at 2 chars/token, got %d", got)
	}

	fallback := NewEstimator(0)
	if fallback.CharsPerToken() != DefaultCharsPerToken {
		t.Errorf("Expected default ratio for zero input, got %v", fallback.CharsPerToken())
	}
}

func BenchmarkEstimateMessagesTokens(b *testing.B) {
	messages := make([]types.Message, 50)
	for i := range messages {
		messages[i] = types.Message{ID: "m", Role: types.RoleUser, Content: strings.Repeat("word ", 200)}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = EstimateMessagesTokens(messages)
	}
}
