// Package anthropic implements providers.Completer for the Anthropic
// Messages API (version 2023-06-01).
//
// # Basic Usage
//
//	client, err := anthropic.NewClient(anthropic.Config{
//	    APIKey: os.Getenv("WAYPOINT_LLM_API_KEY"),
//	    Model:  "claude-sonnet-4-5",
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	completion, err := client.Complete(ctx, &providers.CompletionRequest{
//	    System:   prompt,
//	    Messages: messages,
//	})
//
// # Request Transformation
//
//   - The system prompt goes in the top-level "system" field
//   - Consecutive messages with the same role are merged
//   - A conversation that starts with an assistant message (possible after
//     history trimming) gets a short user placeholder in front
//   - max_tokens defaults to the configured limit
//
// # Error Handling
//
//   - 401/403 -> AuthError
//   - 429 -> RateLimitError with the Retry-After hint
//   - 529 or an "overloaded_error" body -> OverloadedError, not retried
//   - other 4xx -> ProviderError, not retried
//   - 5xx and network errors -> retried with exponential backoff
package anthropic
