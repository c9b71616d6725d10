package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pathfinder-hq/waypoint/pkg/proxy/types"
)

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logs, nil))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("database password is hunter2")
		})
		wrapped := RecoveryMiddleware(logger)(handler)

		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status code = %v, want %v", w.Code, http.StatusInternalServerError)
		}

		var body types.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("Invalid JSON body: %v", err)
		}
		if body.Code != "INTERNAL" {
			t.Errorf("Code = %q, want INTERNAL", body.Code)
		}
		if strings.Contains(w.Body.String(), "hunter2") {
			t.Error("Panic value leaked to client")
		}
		if !strings.Contains(logs.String(), "panic in handler") {
			t.Errorf("Expected panic to be logged, got %s", logs.String())
		}
	})

	t.Run("passes through normal requests", func(t *testing.T) {
		wrapped := RecoveryMiddleware(nil)(okHandler())

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.String() != "OK" {
			t.Errorf("Got %d %q, want 200 OK", w.Code, w.Body.String())
		}
	})

	t.Run("re-panics abort handler", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		})
		wrapped := RecoveryMiddleware(nil)(handler)

		defer func() {
			if rec := recover(); rec != http.ErrAbortHandler {
				t.Errorf("Expected ErrAbortHandler to propagate, got %v", rec)
			}
		}()
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
