// Package handlers provides the HTTP handlers of the LLM-backed endpoints.
//
//   - NewChatHandler: POST /api/chat, one conversational turn
//   - NewReportHandler: POST /api/report, a report over a finished conversation
//
// Both read the body under the configured size limit and hand it to the
// admission pipeline, which owns every check and error decision. The handlers
// only translate the outcome to HTTP.
//
// # Responses
//
// Chat success:
//
//	{"message": {"id": "...", "role": "assistant", "content": "..."},
//	 "usage": {"inputTokens": 812, "outputTokens": 164}}
//
// Report success:
//
//	{"report": "...", "usage": {...}}
//
// Rate-limited (429):
//
//	{"error": "Too many requests. Please wait before trying again.", "retryAfter": 42}
//
// Other rejections:
//
//	{"error": "...", "code": "CONTEXT_TOO_LARGE", "reason": "..."}
//
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset are set
// whenever the rate limiter ran, and Retry-After accompanies every 429.
//
// Liveness, readiness and version endpoints live in pkg/telemetry/health.
package handlers
