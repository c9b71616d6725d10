// Package types defines the request and response bodies exchanged with the
// chatbot front end on the LLM-backed endpoints.
//
// # Core Types
//
// Request types:
//   - Message: a single conversation turn (id, role, content)
//   - ChatRequest: body of POST /api/chat
//   - ReportRequest: body of POST /api/report
//
// Response types:
//   - ChatResponse: assistant reply for a chat turn
//   - ReportResponse: generated report text
//   - Usage: token accounting reported by the provider
//
// Error types:
//   - ErrorResponse: flat JSON error body with optional retryAfter and
//     field-level details
//
// Messages are always ordered oldest first. The gateway never rewrites message
// content; it only decides which messages are forwarded.
package types
