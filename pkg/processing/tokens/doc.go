// Package tokens provides a coarse, deterministic token estimator.
//
// The estimator is not a tokenizer. It approximates the number of model
// tokens in a text as one token per four characters, rounded up. The only
// guarantees are determinism and monotonicity in text length, which is all
// the budget checker and history trimmer need.
//
// # Usage
//
//	n := tokens.EstimateTokens("Hello")          // 2
//	total := tokens.EstimateMessagesTokens(msgs) // sum over contents
//
// Callers that need a different ratio can construct an Estimator:
//
//	est := tokens.NewEstimator(3.5)
//	n := est.EstimateText(text)
package tokens
