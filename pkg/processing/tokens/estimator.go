package tokens

import (
	"math"
	"unicode/utf8"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// DefaultCharsPerToken is the characters-per-token ratio used by the
// package-level helpers.
const DefaultCharsPerToken = 4.0

var defaultEstimator = NewEstimator(DefaultCharsPerToken)

// Estimator implements character-based token estimation.
// It is safe for concurrent use; it holds no mutable state.
type Estimator struct {
	charsPerToken float64
}

// NewEstimator creates an estimator with the given characters-per-token ratio.
// A non-positive ratio falls back to DefaultCharsPerToken.
func NewEstimator(charsPerToken float64) *Estimator {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &Estimator{charsPerToken: charsPerToken}
}

// CharsPerToken returns the ratio used by this estimator.
func (e *Estimator) CharsPerToken() float64 {
	return e.charsPerToken
}

// EstimateText returns ceil(characters / charsPerToken), or 0 for empty text.
// Characters are counted as Unicode code points.
func (e *Estimator) EstimateText(text string) int {
	if text == "" {
		return 0
	}
	chars := utf8.RuneCountInString(text)
	return int(math.Ceil(float64(chars) / e.charsPerToken))
}

// EstimateMessages sums EstimateText over message contents.
// Roles and IDs do not contribute.
func (e *Estimator) EstimateMessages(messages []types.Message) int {
	total := 0
	for _, msg := range messages {
		total += e.EstimateText(msg.Content)
	}
	return total
}

// EstimateTokens estimates the token count of text using the default ratio.
func EstimateTokens(text string) int {
	return defaultEstimator.EstimateText(text)
}

// EstimateMessagesTokens estimates the combined token count of all message
// contents using the default ratio.
func EstimateMessagesTokens(messages []types.Message) int {
	return defaultEstimator.EstimateMessages(messages)
}
