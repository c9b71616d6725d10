// Package admission guards the LLM-backed endpoints.
//
// Pipeline.Admit runs, in order:
//
//  1. identity: auth.Resolver, 401 UNAUTHORIZED when absent
//  2. quota: daily per-user request quota, 403 USAGE_LIMIT
//  3. rate limit: keyed by "userID:fingerprint", 429 RATE_LIMITED with
//     Retry-After
//  4. validation: 400 INVALID_REQUEST with field details
//  5. budget: system prompt plus messages against the context ceiling,
//     413 CONTEXT_TOO_LARGE with a reason
//  6. trim: keep the most recent messages that fit the trim budget
//  7. completion: busy providers (429, 529, overloaded) become 429
//     PROVIDER_BUSY; any other failure is a generic 500 INTERNAL
//  8. usage: recorded after success; a recording failure is only logged
//
// Every rejection is an *Error carrying the status, code and body. Internal
// causes are kept for logging and never serialized.
//
// Each stage runs in its own span under "waypoint.admission" and feeds the
// stage duration histogram and rejection counter when a Recorder is set.
//
// Report requests are forwarded as a single transcript message so the model
// always answers a user turn.
package admission
