package admission

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"pathfinder-hq/waypoint/pkg/limits/ratelimit"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// Code is a machine-readable rejection code returned to clients.
type Code string

// Rejection codes.
const (
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeUsageLimit      Code = "USAGE_LIMIT"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeInvalidRequest  Code = "INVALID_REQUEST"
	CodeContextTooLarge Code = "CONTEXT_TOO_LARGE"
	CodeProviderBusy    Code = "PROVIDER_BUSY"
	CodeInternal        Code = "INTERNAL"
)

// Client-facing messages. Provider and store details never reach clients.
const (
	msgUnauthorized    = "Authentication required"
	msgUsageLimit      = "Daily usage limit reached"
	msgRateLimited     = "Too many requests. Please wait before trying again."
	msgContextTooLarge = "Conversation is too long"
	msgProviderBusy    = "The assistant is busy right now. Please try again shortly."
	msgInternal        = "Something went wrong. Please try again."
)

// Error is a rejected admission. It carries everything needed to write the
// HTTP response; cause holds the internal error, if any, for logging.
type Error struct {
	// Status is the HTTP status code.
	Status int

	// Code is the machine-readable rejection code.
	Code Code

	// Message is safe to show to the user.
	Message string

	// Reason explains a context-budget or quota rejection.
	Reason string

	// RetryAfter is set on 429 responses.
	RetryAfter time.Duration

	// Details lists field-level validation problems.
	Details []types.FieldError

	// RateLimit is the limiter decision, when the rate-limit stage ran.
	RateLimit *ratelimit.CheckResult

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code, e.Status, e.Message, e.cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

// Unwrap returns the internal cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
func (e *Error) RetryAfterSeconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

// Response returns the JSON body for the rejection. 429 bodies carry only
// error and retryAfter.
func (e *Error) Response() *types.ErrorResponse {
	if e.Status == http.StatusTooManyRequests {
		return &types.ErrorResponse{
			Error:      e.Message,
			RetryAfter: e.RetryAfterSeconds(),
		}
	}
	return &types.ErrorResponse{
		Error:   e.Message,
		Code:    string(e.Code),
		Reason:  e.Reason,
		Details: e.Details,
	}
}

func unauthorized(cause error) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: msgUnauthorized, cause: cause}
}

func usageLimit(reason string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeUsageLimit, Message: msgUsageLimit, Reason: reason}
}

func rateLimited(result *ratelimit.CheckResult) *Error {
	return &Error{
		Status:     http.StatusTooManyRequests,
		Code:       CodeRateLimited,
		Message:    msgRateLimited,
		RetryAfter: time.Duration(result.RetryAfterSeconds()) * time.Second,
		RateLimit:  result,
	}
}

func invalidRequest(message string, details []types.FieldError, cause error) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidRequest, Message: message, Details: details, cause: cause}
}

func contextTooLarge(reason string) *Error {
	return &Error{Status: http.StatusRequestEntityTooLarge, Code: CodeContextTooLarge, Message: msgContextTooLarge, Reason: reason}
}

func providerBusy(retryAfter time.Duration, cause error) *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: CodeProviderBusy, Message: msgProviderBusy, RetryAfter: retryAfter, cause: cause}
}

func internal(cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: msgInternal, cause: cause}
}
