package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProviderError represents a general provider error.
// It includes the provider name, HTTP status code, and underlying error.
type ProviderError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Type is the provider's error type string, when the body carried one
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure.
// This occurs when the provider rejects the API key (HTTP 401 or 403).
type AuthError struct {
	Provider string
	Message  string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents HTTP 429 from the provider.
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request
	Provider string

	// RetryAfter is the provider's hint, zero when absent
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// OverloadedError represents a transient capacity failure: HTTP 529 or an
// error body of type "overloaded_error".
type OverloadedError struct {
	Provider   string
	RetryAfter time.Duration
	Message    string
}

// Error implements the error interface.
func (e *OverloadedError) Error() string {
	return fmt.Sprintf("provider %q overloaded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request that exceeded its deadline.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration

	// Cause is the context or transport error
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// Unwrap returns the underlying error for error chain support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// ParseError represents a response parsing failure.
type ParseError struct {
	Provider    string
	RawResponse string
	Cause       error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ConfigError represents an invalid client configuration.
type ConfigError struct {
	Provider string
	Field    string
	Message  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// Error type labels used in metrics and logs.
const (
	ErrorTypeAuth       = "auth"
	ErrorTypeRateLimit  = "rate_limit"
	ErrorTypeOverloaded = "overloaded"
	ErrorTypeTimeout    = "timeout"
	ErrorTypeParse      = "parse"
	ErrorTypeProvider   = "provider"
	ErrorTypeCanceled   = "canceled"
	ErrorTypeUnknown    = "unknown"
)

// ClassifyError returns a short label for err. A nil error yields "".
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	var (
		authErr     *AuthError
		rateErr     *RateLimitError
		overloadErr *OverloadedError
		timeoutErr  *TimeoutError
		parseErr    *ParseError
		provErr     *ProviderError
	)
	switch {
	case errors.As(err, &overloadErr):
		return ErrorTypeOverloaded
	case errors.As(err, &rateErr):
		return ErrorTypeRateLimit
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled
	case errors.As(err, &authErr):
		return ErrorTypeAuth
	case errors.As(err, &parseErr):
		return ErrorTypeParse
	case errors.As(err, &provErr):
		return ErrorTypeProvider
	default:
		return ErrorTypeUnknown
	}
}

// IsBusy reports whether err is a transient capacity signal the caller may
// retry later, and the provider's retry hint (zero when absent).
func IsBusy(err error) (time.Duration, bool) {
	var overloadErr *OverloadedError
	if errors.As(err, &overloadErr) {
		return overloadErr.RetryAfter, true
	}
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return rateErr.RetryAfter, true
	}
	return 0, false
}
