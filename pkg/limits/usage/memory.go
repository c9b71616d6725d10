package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// MemoryStore implements Store with an in-process slice of records.
// All data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends rec.
func (m *MemoryStore) Record(_ context.Context, rec Record) error {
	if rec.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if rec.At.IsZero() {
		rec.At = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Summary aggregates matching records for the UTC day containing day.
func (m *MemoryStore) Summary(_ context.Context, userID string, endpoint types.Endpoint, day time.Time) (*Summary, error) {
	from := dayStart(day)
	to := from.Add(24 * time.Hour)

	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := &Summary{UserID: userID, Endpoint: endpoint, Day: from}
	for _, rec := range m.records {
		if rec.UserID != userID || rec.Endpoint != endpoint {
			continue
		}
		if rec.At.Before(from) || !rec.At.Before(to) {
			continue
		}
		sum.Requests++
		sum.InputTokens += int64(rec.InputTokens)
		sum.OutputTokens += int64(rec.OutputTokens)
		sum.CostUSD += rec.CostUSD
	}
	if sum.Requests == 0 {
		return nil, ErrNotFound
	}
	return sum, nil
}

// Prune removes records older than olderThan.
func (m *MemoryStore) Prune(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.At.Before(olderThan) {
			continue
		}
		kept = append(kept, rec)
	}
	deleted := len(m.records) - len(kept)
	m.records = kept
	return deleted, nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
