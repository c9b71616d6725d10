// Package proxy holds the HTTP edge of Waypoint: request body reading and
// validation, and JSON response writing. Handlers live in the handlers
// subpackage, cross-cutting concerns in middleware, and wire types in types.
//
// # Validation
//
// A Validator checks a chat or report body against the session limits:
//
//   - at least one and at most session.max_messages messages
//   - id: 1..session.max_id_length characters, unique within the request
//   - role: "user" or "assistant"
//   - content: non-blank, at most session.max_message_length characters
//   - phase (chat only): empty or a known assessment phase
//
// Lengths count characters, not bytes. Every problem found is reported as a
// types.FieldError so the client can fix them in one round trip:
//
//	v := proxy.NewValidator(cfg.Session, prompts.ValidPhase)
//	req, err := v.ParseChatRequest(body)
//	var valErr *proxy.ValidationError
//	if errors.As(err, &valErr) {
//	    // 400 with valErr.Details
//	}
//
// # Responses
//
// WriteErrorResponse writes the shared error body and mirrors retryAfter
// into the Retry-After header.
package proxy
