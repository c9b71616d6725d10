package types

// ErrorResponse is the JSON body written for every rejected request.
//
// Rate-limited responses carry RetryAfter (seconds) in addition to the
// Retry-After header. Validation failures carry Details.
type ErrorResponse struct {
	// Error is a human-readable message safe to show to the user.
	Error string `json:"error"`

	// Code is a machine-readable error code (e.g. "RATE_LIMITED").
	Code string `json:"code,omitempty"`

	// Reason explains a context-budget rejection.
	Reason string `json:"reason,omitempty"`

	// RetryAfter is the number of seconds to wait before retrying.
	RetryAfter int `json:"retryAfter,omitempty"`

	// Details lists field-level validation problems.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError describes a single invalid field in a request body.
type FieldError struct {
	// Field is a JSON path to the offending field (e.g. "messages[2].content").
	Field string `json:"field"`

	// Message describes what is wrong with the field.
	Message string `json:"message"`
}
