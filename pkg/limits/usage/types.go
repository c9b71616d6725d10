package usage

import (
	"context"
	"errors"
	"time"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// ErrNotFound is returned by Store.Summary when no usage was recorded for
// the requested user, endpoint and day.
var ErrNotFound = errors.New("usage not found")

// Record is the accounting entry written after a completed request.
type Record struct {
	// RequestID correlates the record with logs.
	RequestID string

	// UserID is the authenticated user.
	UserID string

	// Endpoint is the request class (chat or report).
	Endpoint types.Endpoint

	// Model is the provider model that served the request.
	Model string

	// InputTokens and OutputTokens are the provider-reported usage.
	InputTokens  int
	OutputTokens int

	// Trimmed is the number of history messages dropped before the call.
	Trimmed int

	// CostUSD is the priced cost of the call, zero when the model has no
	// known price.
	CostUSD float64

	// At is when the request completed. Zero means now.
	At time.Time
}

// Summary aggregates one user's usage of one endpoint over one UTC day.
type Summary struct {
	UserID       string
	Endpoint     types.Endpoint
	Day          time.Time
	Requests     int64
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// Store persists usage records.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// Record persists one usage record.
	Record(ctx context.Context, rec Record) error

	// Summary aggregates the records of userID for endpoint on the UTC day
	// containing day. Returns ErrNotFound when there are none.
	Summary(ctx context.Context, userID string, endpoint types.Endpoint, day time.Time) (*Summary, error)

	// Prune deletes records older than olderThan and returns how many were
	// removed.
	Prune(ctx context.Context, olderThan time.Time) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// dayStart truncates t to midnight UTC.
func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
