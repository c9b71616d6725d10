package usage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// storeFactories lets each contract test run against every backend.
func storeFactories(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"sqlite": func() Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "usage.db"))
			if err != nil {
				t.Fatalf("NewSQLiteStore failed: %v", err)
			}
			return s
		},
	}
}

var day = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

// TestStore_RecordAndSummary verifies aggregation per user, endpoint and day.
func TestStore_RecordAndSummary(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			records := []Record{
				{UserID: "u1", Endpoint: types.EndpointChat, InputTokens: 100, OutputTokens: 20, CostUSD: 0.25, At: day.Add(1 * time.Hour)},
				{UserID: "u1", Endpoint: types.EndpointChat, InputTokens: 50, OutputTokens: 10, CostUSD: 0.5, At: day.Add(23 * time.Hour)},
				{UserID: "u1", Endpoint: types.EndpointReport, InputTokens: 999, At: day.Add(2 * time.Hour)},
				{UserID: "u2", Endpoint: types.EndpointChat, InputTokens: 999, At: day.Add(3 * time.Hour)},
				{UserID: "u1", Endpoint: types.EndpointChat, InputTokens: 999, At: day.Add(25 * time.Hour)},
			}
			for _, rec := range records {
				if err := store.Record(ctx, rec); err != nil {
					t.Fatalf("Record failed: %v", err)
				}
			}

			sum, err := store.Summary(ctx, "u1", types.EndpointChat, day.Add(12*time.Hour))
			if err != nil {
				t.Fatalf("Summary failed: %v", err)
			}
			if sum.Requests != 2 {
				t.Errorf("Expected 2 requests, got %d", sum.Requests)
			}
			if sum.InputTokens != 150 || sum.OutputTokens != 30 {
				t.Errorf("Expected 150/30 tokens, got %d/%d", sum.InputTokens, sum.OutputTokens)
			}
			if sum.CostUSD != 0.75 {
				t.Errorf("Expected cost 0.75, got %v", sum.CostUSD)
			}
			if !sum.Day.Equal(day) {
				t.Errorf("Expected day %v, got %v", day, sum.Day)
			}
		})
	}
}

// TestStore_SummaryNotFound verifies ErrNotFound for days without records.
func TestStore_SummaryNotFound(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()

			_, err := store.Summary(context.Background(), "nobody", types.EndpointChat, day)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}
		})
	}
}

// TestStore_RejectsEmptyUser verifies records need a user.
func TestStore_RejectsEmptyUser(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()

			if err := store.Record(context.Background(), Record{Endpoint: types.EndpointChat}); err == nil {
				t.Error("Expected error for empty user id")
			}
		})
	}
}

// TestStore_Prune verifies only old records are deleted.
func TestStore_Prune(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			old := Record{UserID: "u", Endpoint: types.EndpointChat, At: day.Add(-48 * time.Hour)}
			fresh := Record{UserID: "u", Endpoint: types.EndpointChat, At: day.Add(time.Hour)}
			for _, rec := range []Record{old, old, fresh} {
				if err := store.Record(ctx, rec); err != nil {
					t.Fatal(err)
				}
			}

			deleted, err := store.Prune(ctx, day)
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if deleted != 2 {
				t.Errorf("Expected 2 deleted, got %d", deleted)
			}

			sum, err := store.Summary(ctx, "u", types.EndpointChat, day)
			if err != nil {
				t.Fatalf("Summary failed: %v", err)
			}
			if sum.Requests != 1 {
				t.Errorf("Expected fresh record kept, got %d requests", sum.Requests)
			}
		})
	}
}

// TestStore_ConcurrentRecord verifies concurrent writers are all persisted.
func TestStore_ConcurrentRecord(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := store.Record(ctx, Record{UserID: "u", Endpoint: types.EndpointChat, At: day}); err != nil {
						t.Errorf("Record failed: %v", err)
					}
				}()
			}
			wg.Wait()

			sum, err := store.Summary(ctx, "u", types.EndpointChat, day)
			if err != nil {
				t.Fatalf("Summary failed: %v", err)
			}
			if sum.Requests != 20 {
				t.Errorf("Expected 20 requests, got %d", sum.Requests)
			}
		})
	}
}

// TestSQLiteStore_Persistence verifies records survive reopening.
func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "usage.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store.Record(ctx, Record{UserID: "u", Endpoint: types.EndpointReport, At: day}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close is idempotent.
	if err := store.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	sum, err := reopened.Summary(ctx, "u", types.EndpointReport, day)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Requests != 1 {
		t.Errorf("Expected 1 persisted request, got %d", sum.Requests)
	}
}

func TestNewSQLiteStore_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteStore(""); err == nil {
		t.Error("Expected error for empty path")
	}
}
