// Package budget decides whether a request fits the model's context window.
//
// # Overview
//
// The check runs before the provider is called so that oversized requests are
// rejected without paying for them. It is separate from per-message length
// validation: a conversation of many valid messages can still exceed the
// context ceiling.
//
// # Usage
//
//	checker := budget.NewChecker(15000)
//	result := checker.Check(messages, systemPrompt)
//	if !result.Allowed {
//	    // respond 413 with result.Reason
//	}
//
// The estimate is the sum of the message estimate and the system prompt
// estimate from package tokens. A total equal to the ceiling is allowed.
package budget
