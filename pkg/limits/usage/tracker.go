package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// Quotas maps each endpoint to its daily request quota. A missing or
// non-positive entry means unlimited.
type Quotas map[types.Endpoint]int64

// QuotaResult is the outcome of a quota check.
type QuotaResult struct {
	// Allowed indicates the user may make another request today.
	Allowed bool

	// Used is the number of requests already recorded today.
	Used int64

	// Limit is the daily quota (0 = unlimited).
	Limit int64

	// ResetAt is the next UTC midnight.
	ResetAt time.Time
}

// Tracker enforces daily per-user quotas over a Store and records usage.
type Tracker struct {
	store  Store
	quotas Quotas
	now    func() time.Time
	logger *slog.Logger
}

// NewTracker creates a tracker over store.
func NewTracker(store Store, quotas Quotas, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if quotas == nil {
		quotas = Quotas{}
	}
	return &Tracker{
		store:  store,
		quotas: quotas,
		now:    time.Now,
		logger: logger.With("component", "usage"),
	}
}

// Store returns the underlying store.
func (t *Tracker) Store() Store {
	return t.store
}

// CheckQuota reports whether userID may make another endpoint request today.
// Store failures are returned so the caller can fail the request.
func (t *Tracker) CheckQuota(ctx context.Context, userID string, endpoint types.Endpoint) (*QuotaResult, error) {
	now := t.now()
	limit := t.quotas[endpoint]
	result := &QuotaResult{
		Allowed: true,
		Limit:   limit,
		ResetAt: dayStart(now).Add(24 * time.Hour),
	}
	if limit <= 0 {
		return result, nil
	}

	sum, err := t.store.Summary(ctx, userID, endpoint, now)
	switch {
	case errors.Is(err, ErrNotFound):
		return result, nil
	case err != nil:
		return nil, fmt.Errorf("failed to check quota: %w", err)
	}

	result.Used = sum.Requests
	result.Allowed = sum.Requests < limit
	return result, nil
}

// RecordUsage persists rec.
func (t *Tracker) RecordUsage(ctx context.Context, rec Record) error {
	if rec.At.IsZero() {
		rec.At = t.now()
	}
	if err := t.store.Record(ctx, rec); err != nil {
		return err
	}
	t.logger.DebugContext(ctx, "usage recorded",
		"endpoint", rec.Endpoint,
		"input_tokens", rec.InputTokens,
		"output_tokens", rec.OutputTokens,
		"cost_usd", rec.CostUSD,
	)
	return nil
}
