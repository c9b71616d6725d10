package budget

import (
	"fmt"

	"pathfinder-hq/waypoint/pkg/processing/tokens"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// DefaultMaxContextTokens is the context ceiling used by CheckTokenBudget.
const DefaultMaxContextTokens = 15000

// Result is the outcome of a budget check.
type Result struct {
	// Allowed indicates whether the request fits under the ceiling.
	Allowed bool

	// Tokens is the estimated total (messages + system prompt).
	Tokens int

	// Limit is the ceiling the request was checked against.
	Limit int

	// Reason explains the rejection when Allowed is false.
	Reason string
}

// Overage returns how many estimated tokens the request is over the ceiling.
func (r Result) Overage() int {
	if r.Tokens <= r.Limit {
		return 0
	}
	return r.Tokens - r.Limit
}

// Checker enforces a fixed context-token ceiling.
type Checker struct {
	maxContextTokens int
	estimator        *tokens.Estimator
}

// Option configures a Checker.
type Option func(*Checker)

// WithEstimator replaces the default 4-characters-per-token estimator.
func WithEstimator(e *tokens.Estimator) Option {
	return func(c *Checker) {
		if e != nil {
			c.estimator = e
		}
	}
}

// NewChecker creates a checker with the given ceiling. A non-positive
// ceiling uses DefaultMaxContextTokens.
func NewChecker(maxContextTokens int, opts ...Option) *Checker {
	if maxContextTokens <= 0 {
		maxContextTokens = DefaultMaxContextTokens
	}
	c := &Checker{
		maxContextTokens: maxContextTokens,
		estimator:        tokens.NewEstimator(tokens.DefaultCharsPerToken),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxContextTokens returns the configured ceiling.
func (c *Checker) MaxContextTokens() int {
	return c.maxContextTokens
}

// Check estimates the combined size of messages and systemPrompt and compares
// it against the ceiling.
func (c *Checker) Check(messages []types.Message, systemPrompt string) Result {
	total := c.estimator.EstimateMessages(messages) + c.estimator.EstimateText(systemPrompt)

	result := Result{
		Allowed: true,
		Tokens:  total,
		Limit:   c.maxContextTokens,
	}
	if total > c.maxContextTokens {
		result.Allowed = false
		result.Reason = fmt.Sprintf(
			"Conversation is too long: about %d tokens against a limit of %d (%d over). Please start a new conversation.",
			total, c.maxContextTokens, total-c.maxContextTokens,
		)
	}
	return result
}

var defaultChecker = NewChecker(DefaultMaxContextTokens)

// CheckTokenBudget checks messages and systemPrompt against
// DefaultMaxContextTokens.
func CheckTokenBudget(messages []types.Message, systemPrompt string) Result {
	return defaultChecker.Check(messages, systemPrompt)
}
