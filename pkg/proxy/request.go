package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

const (
	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"

	// maxDetails bounds the number of field errors reported.
	maxDetails = 20
)

// ValidationError is a malformed request body. Details lists every field
// problem found, up to a bound.
type ValidationError struct {
	Message string
	Details []types.FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s %s", e.Message, e.Details[0].Field, e.Details[0].Message)
}

// ErrBodyTooLarge is returned by ReadBody when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// ReadBody reads at most limit bytes of r's body. A longer body yields
// ErrBodyTooLarge.
func ReadBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, ErrBodyTooLarge
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, ErrBodyTooLarge
	}
	return body, nil
}

// ExtractRequestID returns the client-supplied X-Request-ID, or "".
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// Validator checks request bodies against the session limits.
type Validator struct {
	maxMessageLength int
	maxMessages      int
	maxIDLength      int
	validPhase       func(string) bool
}

// NewValidator creates a Validator. validPhase decides which chat phases are
// accepted; nil accepts any.
func NewValidator(cfg config.SessionConfig, validPhase func(string) bool) *Validator {
	v := &Validator{
		maxMessageLength: cfg.MaxMessageLength,
		maxMessages:      cfg.MaxMessages,
		maxIDLength:      cfg.MaxIDLength,
		validPhase:       validPhase,
	}
	if v.maxMessageLength <= 0 {
		v.maxMessageLength = config.DefaultMaxMessageLength
	}
	if v.maxMessages <= 0 {
		v.maxMessages = config.DefaultMaxMessages
	}
	if v.maxIDLength <= 0 {
		v.maxIDLength = config.DefaultMaxIDLength
	}
	return v
}

// ParseChatRequest decodes and validates a chat request body.
func (v *Validator) ParseChatRequest(body []byte) (*types.ChatRequest, error) {
	var req types.ChatRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}

	details := v.validateMessages(req.Messages)
	if req.Phase != "" && v.validPhase != nil && !v.validPhase(req.Phase) {
		details = append(details, types.FieldError{Field: "phase", Message: fmt.Sprintf("unknown phase %q", req.Phase)})
	}
	if len(details) > 0 {
		return nil, invalid(details)
	}
	return &req, nil
}

// ParseReportRequest decodes and validates a report request body.
func (v *Validator) ParseReportRequest(body []byte) (*types.ReportRequest, error) {
	var req types.ReportRequest
	if err := decode(body, &req); err != nil {
		return nil, err
	}
	if details := v.validateMessages(req.Messages); len(details) > 0 {
		return nil, invalid(details)
	}
	return &req, nil
}

func (v *Validator) validateMessages(messages []types.Message) []types.FieldError {
	if len(messages) == 0 {
		return []types.FieldError{{Field: "messages", Message: "at least one message is required"}}
	}
	if len(messages) > v.maxMessages {
		return []types.FieldError{{Field: "messages", Message: fmt.Sprintf("at most %d messages are allowed", v.maxMessages)}}
	}

	var details []types.FieldError
	add := func(i int, field, msg string) {
		if len(details) < maxDetails {
			details = append(details, types.FieldError{Field: fmt.Sprintf("messages[%d].%s", i, field), Message: msg})
		}
	}

	seen := make(map[string]int, len(messages))
	for i, m := range messages {
		switch n := utf8.RuneCountInString(m.ID); {
		case n == 0:
			add(i, "id", "is required")
		case n > v.maxIDLength:
			add(i, "id", fmt.Sprintf("must be at most %d characters", v.maxIDLength))
		default:
			if first, dup := seen[m.ID]; dup {
				add(i, "id", fmt.Sprintf("duplicates messages[%d].id", first))
			} else {
				seen[m.ID] = i
			}
		}

		if !m.Role.Valid() {
			add(i, "role", `must be "user" or "assistant"`)
		}

		switch n := utf8.RuneCountInString(m.Content); {
		case strings.TrimSpace(m.Content) == "":
			add(i, "content", "must not be empty")
		case n > v.maxMessageLength:
			add(i, "content", fmt.Sprintf("must be at most %d characters", v.maxMessageLength))
		}
	}
	return details
}

func decode(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return &ValidationError{Message: "request body is required"}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(dst); err != nil {
		return &ValidationError{Message: "request body is not valid JSON", Details: []types.FieldError{{Field: "body", Message: jsonProblem(err)}}}
	}
	if dec.More() {
		return &ValidationError{Message: "request body is not valid JSON", Details: []types.FieldError{{Field: "body", Message: "unexpected data after JSON value"}}}
	}
	return nil
}

// jsonProblem describes a decode error without echoing body content.
func jsonProblem(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field %q must be %s", typeErr.Field, typeErr.Type.String())
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("syntax error at offset %d", syntaxErr.Offset)
	}
	return "malformed JSON"
}

func invalid(details []types.FieldError) *ValidationError {
	return &ValidationError{Message: "invalid request", Details: details}
}
