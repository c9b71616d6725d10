// Package providers defines the LLM client contract used by the admission
// pipeline and the HTTP plumbing shared by provider adapters.
//
// # Overview
//
// The pipeline depends only on Completer. An adapter (see the anthropic
// subpackage) translates CompletionRequest into its wire format and builds
// on HTTPClient for pooling, retries and error typing.
//
// # Error Types
//
//   - AuthError: the provider rejected the credentials
//   - RateLimitError: HTTP 429, with the provider's Retry-After hint
//   - OverloadedError: transient capacity failure (HTTP 529 or an overload
//     error body)
//   - TimeoutError: the context deadline expired
//   - ParseError: the response could not be decoded
//   - ProviderError: any other non-2xx response
//
// IsBusy groups RateLimitError and OverloadedError, the two signals a caller
// should surface as "try again later". ClassifyError maps any error to a
// short label for metrics.
//
// # Retries
//
// HTTPClient retries network errors and 5xx responses (except 529) with
// exponential backoff from github.com/cenkalti/backoff/v5. Everything else
// returns on the first attempt.
package providers
