package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrStoreUnavailable is returned by a WindowStore that cannot reach its
// backing service.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// Config describes one limiter instance.
type Config struct {
	// Name identifies the limiter (e.g. "chat", "report"). It namespaces
	// keys so that instances never share counters.
	Name string

	// MaxRequests is the number of requests allowed per window.
	MaxRequests int64

	// Window is the length of the limiting window.
	Window time.Duration
}

// Limiter decides whether a request from an identifier may proceed.
// Implementations must be safe for concurrent use.
type Limiter interface {
	// Check records one request for identifier and reports whether it is
	// allowed. It never returns nil.
	Check(ctx context.Context, identifier string) *CheckResult

	// Name returns the limiter's configured name.
	Name() string

	// Config returns the limiter's configuration.
	Config() Config
}

// CheckResult contains the result of a rate limit check.
type CheckResult struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Limit is the configured maximum requests per window.
	Limit int64

	// Remaining is how many requests remain in the current window.
	Remaining int64

	// ResetIn is how long until the window resets.
	ResetIn time.Duration

	// Reset is the absolute time at which the window resets.
	Reset time.Time

	// Reason explains why the request was rejected (if Allowed=false).
	Reason string

	// Degraded is set when the decision was made without the backing store
	// (fail-closed).
	Degraded bool
}

// RetryAfterSeconds returns ResetIn rounded up to whole seconds, as used in
// the Retry-After header. Rejections always report at least one second.
func (r *CheckResult) RetryAfterSeconds() int {
	secs := int(math.Ceil(r.ResetIn.Seconds()))
	if secs < 1 && !r.Allowed {
		return 1
	}
	if secs < 0 {
		return 0
	}
	return secs
}

// ceilSeconds rounds d up to a whole number of seconds.
func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(d.Seconds())) * time.Second
}
