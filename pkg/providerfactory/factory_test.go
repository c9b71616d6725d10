package providerfactory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pathfinder-hq/waypoint/internal/providertest"
	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/providers"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewCompleter(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LLMConfig
		wantErr  bool
		wantName string
	}{
		{
			name:     "anthropic",
			cfg:      config.LLMConfig{Provider: "anthropic", APIKey: "k", Model: "m", Timeout: time.Second},
			wantName: "anthropic",
		},
		{
			name:     "empty provider defaults to anthropic",
			cfg:      config.LLMConfig{APIKey: "k", Model: "m"},
			wantName: "anthropic",
		},
		{
			name:    "missing api key",
			cfg:     config.LLMConfig{Provider: "anthropic", Model: "m"},
			wantErr: true,
		},
		{
			name:    "unsupported provider",
			cfg:     config.LLMConfig{Provider: "openai", APIKey: "k", Model: "m"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCompleter(tt.cfg, quietLogger())
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				var cfgErr *providers.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("Expected ConfigError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewCompleter failed: %v", err)
			}
			if c.Name() != tt.wantName {
				t.Errorf("Expected name %s, got %s", tt.wantName, c.Name())
			}
		})
	}
}

type fakeRecorder struct {
	mu     sync.Mutex
	calls  []string
	health []bool
}

func (f *fakeRecorder) RecordProviderCall(provider, model string, latency time.Duration, errorType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, model+"/"+errorType)
}

func (f *fakeRecorder) UpdateProviderHealth(provider string, healthy bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.health = append(f.health, healthy)
}

func testRequest() *providers.CompletionRequest {
	return &providers.CompletionRequest{
		Messages: []types.Message{{ID: "1", Role: types.RoleUser, Content: "hi"}},
	}
}

func TestInstrumented_RecordsCalls(t *testing.T) {
	mock := providertest.NewMockCompleter()
	rec := &fakeRecorder{}
	c := Instrument(mock, "default-model", nil, rec, quietLogger())

	if _, err := c.Complete(context.Background(), testRequest()); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	mock.SetError(&providers.OverloadedError{Provider: "mock"})
	if _, err := c.Complete(context.Background(), testRequest()); err == nil {
		t.Fatal("Expected error")
	}

	if len(rec.calls) != 2 || rec.calls[0] != "mock-model/" || rec.calls[1] != "default-model/overloaded" {
		t.Errorf("Unexpected recorded calls: %v", rec.calls)
	}
	if c.Name() != "mock" {
		t.Errorf("Expected wrapped name, got %s", c.Name())
	}
}

func TestInstrumented_Health(t *testing.T) {
	mock := providertest.NewMockCompleter()
	rec := &fakeRecorder{}
	c := Instrument(mock, "m", nil, rec, quietLogger())

	// Busy signals never mark the provider unhealthy.
	mock.SetError(&providers.RateLimitError{Provider: "mock"})
	for i := 0; i < UnhealthyAfter+1; i++ {
		_, _ = c.Complete(context.Background(), testRequest())
	}
	if !c.Health().Healthy {
		t.Fatal("Expected provider to stay healthy on busy errors")
	}

	mock.SetError(&providers.ProviderError{Provider: "mock", StatusCode: 500})
	for i := 0; i < UnhealthyAfter; i++ {
		_, _ = c.Complete(context.Background(), testRequest())
	}
	h := c.Health()
	if h.Healthy || h.ConsecutiveFailures != UnhealthyAfter || h.FailedRequests != int64(UnhealthyAfter) {
		t.Fatalf("Expected unhealthy after %d failures, got %+v", UnhealthyAfter, h)
	}

	mock.SetError(nil)
	_, _ = c.Complete(context.Background(), testRequest())
	if !c.Health().Healthy {
		t.Error("Expected recovery after a success")
	}

	// initial true, unhealthy, recovered
	if len(rec.health) != 3 || !rec.health[0] || rec.health[1] || !rec.health[2] {
		t.Errorf("Unexpected health transitions: %v", rec.health)
	}
}
