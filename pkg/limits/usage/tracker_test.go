package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// failingStore returns err from every call.
type failingStore struct {
	err error
}

func (f failingStore) Record(context.Context, Record) error { return f.err }
func (f failingStore) Summary(context.Context, string, types.Endpoint, time.Time) (*Summary, error) {
	return nil, f.err
}
func (f failingStore) Prune(context.Context, time.Time) (int, error) { return 0, f.err }
func (f failingStore) Close() error                                   { return nil }

func newTestTracker(store Store, quotas Quotas, now time.Time) *Tracker {
	tr := NewTracker(store, quotas, nil)
	tr.now = func() time.Time { return now }
	return tr
}

// TestTracker_QuotaExhausted verifies the quota counts recorded requests.
func TestTracker_QuotaExhausted(t *testing.T) {
	now := day.Add(10 * time.Hour)
	tr := newTestTracker(NewMemoryStore(), Quotas{types.EndpointChat: 2}, now)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := tr.CheckQuota(ctx, "u", types.EndpointChat)
		if err != nil {
			t.Fatalf("CheckQuota failed: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("Request %d: expected allowed", i+1)
		}
		if err := tr.RecordUsage(ctx, Record{UserID: "u", Endpoint: types.EndpointChat}); err != nil {
			t.Fatal(err)
		}
	}

	res, err := tr.CheckQuota(ctx, "u", types.EndpointChat)
	if err != nil {
		t.Fatalf("CheckQuota failed: %v", err)
	}
	if res.Allowed {
		t.Error("Expected quota exhausted")
	}
	if res.Used != 2 || res.Limit != 2 {
		t.Errorf("Expected used 2 of 2, got %d of %d", res.Used, res.Limit)
	}
	if want := day.Add(24 * time.Hour); !res.ResetAt.Equal(want) {
		t.Errorf("Expected reset at %v, got %v", want, res.ResetAt)
	}

	// Other endpoints have their own quota.
	res, _ = tr.CheckQuota(ctx, "u", types.EndpointReport)
	if !res.Allowed {
		t.Error("Expected report unaffected by chat usage")
	}
}

// TestTracker_Unlimited verifies a zero quota never consults the store.
func TestTracker_Unlimited(t *testing.T) {
	tr := newTestTracker(failingStore{err: errors.New("boom")}, nil, day)

	res, err := tr.CheckQuota(context.Background(), "u", types.EndpointChat)
	if err != nil {
		t.Fatalf("Expected no error for unlimited quota, got %v", err)
	}
	if !res.Allowed {
		t.Error("Expected allowed")
	}
}

// TestTracker_StoreError verifies store failures surface to the caller.
func TestTracker_StoreError(t *testing.T) {
	boom := errors.New("disk full")
	tr := newTestTracker(failingStore{err: boom}, Quotas{types.EndpointChat: 5}, day)

	if _, err := tr.CheckQuota(context.Background(), "u", types.EndpointChat); !errors.Is(err, boom) {
		t.Errorf("Expected wrapped store error, got %v", err)
	}
	if err := tr.RecordUsage(context.Background(), Record{UserID: "u"}); !errors.Is(err, boom) {
		t.Errorf("Expected store error from RecordUsage, got %v", err)
	}
}

// TestTracker_NewDay verifies the quota resets at UTC midnight.
func TestTracker_NewDay(t *testing.T) {
	store := NewMemoryStore()
	tr := newTestTracker(store, Quotas{types.EndpointReport: 1}, day.Add(23*time.Hour))
	ctx := context.Background()

	if err := tr.RecordUsage(ctx, Record{UserID: "u", Endpoint: types.EndpointReport}); err != nil {
		t.Fatal(err)
	}
	if res, _ := tr.CheckQuota(ctx, "u", types.EndpointReport); res.Allowed {
		t.Fatal("Expected quota exhausted on the same day")
	}

	tr.now = func() time.Time { return day.Add(25 * time.Hour) }
	if res, _ := tr.CheckQuota(ctx, "u", types.EndpointReport); !res.Allowed {
		t.Error("Expected quota available the next day")
	}
}
