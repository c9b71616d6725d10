package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultMaxEntries is the record count above which expired records are
	// pruned.
	DefaultMaxEntries = 10000

	// pruneTargetRatio is the fraction of MaxEntries pruning stops at.
	pruneTargetRatio = 0.8
)

// record is the fixed window state for one identifier.
type record struct {
	count   int64
	resetAt time.Time
}

// MemoryLimiter implements Limiter with in-process fixed window counters.
//
// Check holds the limiter's mutex across read-check-increment, so counts are
// exact within one process. State is not shared with other processes.
type MemoryLimiter struct {
	config     Config
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	records map[string]*record
}

// MemoryOption configures a MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryLimiter) {
		if now != nil {
			m.now = now
		}
	}
}

// WithMaxEntries sets the record count above which pruning runs.
func WithMaxEntries(n int) MemoryOption {
	return func(m *MemoryLimiter) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// NewMemoryLimiter creates an in-process limiter.
//
// Example:
//
//	limiter := NewMemoryLimiter(Config{
//	    Name:        "chat",
//	    MaxRequests: 15,
//	    Window:      time.Minute,
//	})
func NewMemoryLimiter(config Config, opts ...MemoryOption) *MemoryLimiter {
	m := &MemoryLimiter{
		config:     config,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		records:    make(map[string]*record),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the limiter's configured name.
func (m *MemoryLimiter) Name() string {
	return m.config.Name
}

// Config returns the limiter's configuration.
func (m *MemoryLimiter) Config() Config {
	return m.config
}

// Check records one request for identifier.
func (m *MemoryLimiter) Check(_ context.Context, identifier string) *CheckResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec, ok := m.records[identifier]

	// New identifier or expired window: start a fresh window.
	if !ok || !now.Before(rec.resetAt) {
		if !ok && len(m.records) > m.maxEntries {
			m.pruneLocked(now)
		}
		rec = &record{count: 1, resetAt: now.Add(m.config.Window)}
		m.records[identifier] = rec
		return m.resultLocked(rec, now, true)
	}

	if rec.count < m.config.MaxRequests {
		rec.count++
		return m.resultLocked(rec, now, true)
	}

	result := m.resultLocked(rec, now, false)
	result.Reason = "rate limit exceeded"
	return result
}

// resultLocked builds a CheckResult from rec. Caller must hold m.mu.
func (m *MemoryLimiter) resultLocked(rec *record, now time.Time, allowed bool) *CheckResult {
	remaining := m.config.MaxRequests - rec.count
	if remaining < 0 {
		remaining = 0
	}
	return &CheckResult{
		Allowed:   allowed,
		Limit:     m.config.MaxRequests,
		Remaining: remaining,
		ResetIn:   ceilSeconds(rec.resetAt.Sub(now)),
		Reset:     rec.resetAt,
	}
}

// pruneLocked deletes expired records until the map is below 80% of
// maxEntries or no expired records remain. Caller must hold m.mu.
func (m *MemoryLimiter) pruneLocked(now time.Time) {
	target := int(float64(m.maxEntries) * pruneTargetRatio)
	for key, rec := range m.records {
		if len(m.records) < target {
			return
		}
		if !now.Before(rec.resetAt) {
			delete(m.records, key)
		}
	}
}

// Size returns the number of tracked identifiers.
func (m *MemoryLimiter) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Reset clears all records. This is primarily for testing.
func (m *MemoryLimiter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*record)
}
