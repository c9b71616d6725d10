package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		preflight  bool
		wantOrigin string
		wantStatus int
	}{
		{
			name:       "allowed origin",
			origins:    []string{"https://app.example.com"},
			method:     http.MethodPost,
			origin:     "https://app.example.com",
			wantOrigin: "https://app.example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown origin gets no headers",
			origins:    []string{"https://app.example.com"},
			method:     http.MethodPost,
			origin:     "https://evil.example.com",
			wantOrigin: "",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wildcard",
			origins:    []string{"*"},
			method:     http.MethodGet,
			origin:     "https://anywhere.example.com",
			wantOrigin: "*",
			wantStatus: http.StatusOK,
		},
		{
			name:       "disabled without origins",
			origins:    nil,
			method:     http.MethodPost,
			origin:     "https://app.example.com",
			wantOrigin: "",
			wantStatus: http.StatusOK,
		},
		{
			name:       "preflight",
			origins:    []string{"https://app.example.com"},
			method:     http.MethodOptions,
			origin:     "https://app.example.com",
			preflight:  true,
			wantOrigin: "https://app.example.com",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := CORSMiddleware(NewCORSConfig(tt.origins))(okHandler())

			req := httptest.NewRequest(tt.method, "/api/chat", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if tt.preflight && !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-User-ID") {
				t.Error("Expected X-User-ID in allowed headers")
			}
		})
	}
}

func TestCORSMiddleware_ExposesRateLimitHeaders(t *testing.T) {
	wrapped := CORSMiddleware(NewCORSConfig([]string{"*"}))(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	exposed := w.Header().Get("Access-Control-Expose-Headers")
	for _, h := range []string{"Retry-After", "X-RateLimit-Remaining", "X-RateLimit-Reset"} {
		if !strings.Contains(exposed, h) {
			t.Errorf("Expected %s to be exposed, got %q", h, exposed)
		}
	}
}
