package conversation

import (
	"pathfinder-hq/waypoint/pkg/processing/tokens"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

const (
	// DefaultTrimTokens is the history budget used when the caller passes a
	// non-positive budget.
	DefaultTrimTokens = 12000

	// MinMessages is the number of most recent messages that are always kept.
	MinMessages = 2
)

// TrimResult describes the outcome of a trim.
type TrimResult struct {
	// Messages is the retained suffix, oldest first.
	Messages []types.Message

	// Dropped is the number of older messages that were removed.
	Dropped int

	// Tokens is the estimated token count of Messages.
	Tokens int
}

// Trimmer trims histories using a configurable estimator and default budget.
type Trimmer struct {
	estimator *tokens.Estimator
	maxTokens int
}

// NewTrimmer creates a trimmer with the given default budget.
// A nil estimator uses the default four-characters-per-token estimator.
func NewTrimmer(estimator *tokens.Estimator, maxTokens int) *Trimmer {
	if estimator == nil {
		estimator = tokens.NewEstimator(tokens.DefaultCharsPerToken)
	}
	if maxTokens <= 0 {
		maxTokens = DefaultTrimTokens
	}
	return &Trimmer{estimator: estimator, maxTokens: maxTokens}
}

// MaxTokens returns the trimmer's default budget.
func (t *Trimmer) MaxTokens() int {
	return t.maxTokens
}

// Trim keeps the longest suffix of messages that fits the trimmer's budget,
// subject to the two-message floor.
func (t *Trimmer) Trim(messages []types.Message) TrimResult {
	return t.TrimTo(messages, t.maxTokens)
}

// TrimTo is Trim with an explicit budget. A non-positive budget uses the
// trimmer's default.
func (t *Trimmer) TrimTo(messages []types.Message, maxTokens int) TrimResult {
	if maxTokens <= 0 {
		maxTokens = t.maxTokens
	}

	if len(messages) <= MinMessages {
		return TrimResult{
			Messages: messages,
			Tokens:   t.estimator.EstimateMessages(messages),
		}
	}

	start := len(messages)
	total := 0
	for i := len(messages) - 1; i >= 0; i-- {
		cost := t.estimator.EstimateText(messages[i].Content)
		accepted := len(messages) - start
		if total+cost > maxTokens && accepted >= MinMessages {
			break
		}
		total += cost
		start = i
	}

	kept := make([]types.Message, len(messages)-start)
	copy(kept, messages[start:])

	return TrimResult{
		Messages: kept,
		Dropped:  start,
		Tokens:   total,
	}
}

var defaultTrimmer = NewTrimmer(nil, DefaultTrimTokens)

// TrimConversationHistory returns the most recent messages that fit within
// maxTokens, keeping at least two. A non-positive maxTokens uses
// DefaultTrimTokens.
func TrimConversationHistory(messages []types.Message, maxTokens int) []types.Message {
	return defaultTrimmer.TrimTo(messages, maxTokens).Messages
}
