package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"pathfinder-hq/waypoint/internal/providertest"
	"pathfinder-hq/waypoint/pkg/admission"
	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/limits"
	"pathfinder-hq/waypoint/pkg/limits/budget"
	"pathfinder-hq/waypoint/pkg/limits/ratelimit"
	"pathfinder-hq/waypoint/pkg/limits/usage"
	"pathfinder-hq/waypoint/pkg/processing/conversation"
	"pathfinder-hq/waypoint/pkg/processing/tokens"
	"pathfinder-hq/waypoint/pkg/prompts"
	"pathfinder-hq/waypoint/pkg/providers"
	"pathfinder-hq/waypoint/pkg/proxy"
	"pathfinder-hq/waypoint/pkg/proxy/types"
	"pathfinder-hq/waypoint/pkg/security/auth"
	"pathfinder-hq/waypoint/pkg/security/fingerprint"
)

func newPipeline(t *testing.T, completer providers.Completer) *admission.Pipeline {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	library, err := prompts.NewLibrary(config.PromptsConfig{}, logger)
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}

	p, err := admission.NewPipeline(admission.Dependencies{
		Identity: auth.NewHeaderResolver(auth.DefaultUserHeader),
		Usage:    usage.NewTracker(usage.NewMemoryStore(), nil, logger),
		Limits: &limits.Limits{
			Chat:   ratelimit.NewMemoryLimiter(ratelimit.Config{Name: "chat", MaxRequests: 15, Window: time.Minute}),
			Report: ratelimit.NewMemoryLimiter(ratelimit.Config{Name: "report", MaxRequests: 5, Window: time.Minute}),
		},
		Fingerprinter: fingerprint.New(fingerprint.DefaultPlatformHeader),
		Validator:     proxy.NewValidator(config.SessionConfig{}, prompts.ValidPhase),
		Prompts:       library,
		Budget:        budget.NewChecker(budget.DefaultMaxContextTokens),
		Trimmer:       conversation.NewTrimmer(tokens.NewEstimator(tokens.DefaultCharsPerToken), conversation.DefaultTrimTokens),
		Completer:     completer,
		Logger:        logger,
	})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	return p
}

type fakeRecorder struct {
	endpoint string
	status   int
	calls    int
}

func (f *fakeRecorder) RecordRequest(endpoint string, status int, _ time.Duration) {
	f.endpoint, f.status = endpoint, status
	f.calls++
}

const helloBody = `{"messages":[{"id":"m1","role":"user","content":"Hello"}]}`

func post(h http.Handler, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	if user != "" {
		req.Header.Set(auth.DefaultUserHeader, user)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestChatHandler_Success(t *testing.T) {
	completer := providertest.NewMockCompleter()
	completer.SetReply("Nice to meet you.")
	recorder := &fakeRecorder{}
	h := NewChatHandler(newPipeline(t, completer), Options{Metrics: recorder})

	w := post(h, "/api/chat", "user-1", helloBody)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body %s", w.Code, w.Body.String())
	}

	var resp types.ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Message.Role != types.RoleAssistant || resp.Message.Content != "Nice to meet you." || resp.Message.ID == "" {
		t.Errorf("Unexpected message: %+v", resp.Message)
	}
	if resp.Usage.InputTokens == 0 {
		t.Error("Expected usage to be reported")
	}

	if got := w.Header().Get(HeaderRateLimitLimit); got != "15" {
		t.Errorf("%s = %q, want 15", HeaderRateLimitLimit, got)
	}
	if got := w.Header().Get(HeaderRateLimitRemaining); got != "14" {
		t.Errorf("%s = %q, want 14", HeaderRateLimitRemaining, got)
	}
	reset, err := strconv.ParseInt(w.Header().Get(HeaderRateLimitReset), 10, 64)
	if err != nil || reset < time.Now().Unix() || reset > time.Now().Add(61*time.Second).Unix() {
		t.Errorf("Unexpected reset header %q", w.Header().Get(HeaderRateLimitReset))
	}

	if recorder.calls != 1 || recorder.endpoint != "chat" || recorder.status != http.StatusOK {
		t.Errorf("Unexpected metrics: %+v", recorder)
	}
}

func TestReportHandler_Success(t *testing.T) {
	completer := providertest.NewMockCompleter()
	completer.SetReply("# Your report")
	h := NewReportHandler(newPipeline(t, completer), Options{})

	w := post(h, "/api/report", "user-1", helloBody)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body %s", w.Code, w.Body.String())
	}

	var resp types.ReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if resp.Report != "# Your report" {
		t.Errorf("Report = %q", resp.Report)
	}
}

func TestChatHandler_RateLimited(t *testing.T) {
	h := NewChatHandler(newPipeline(t, providertest.NewMockCompleter()), Options{})

	for i := 1; i <= 15; i++ {
		if w := post(h, "/api/chat", "u", helloBody); w.Code != http.StatusOK {
			t.Fatalf("Request %d: status %d", i, w.Code)
		}
	}

	w := post(h, "/api/chat", "u", helloBody)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Status = %d, want 429", w.Code)
	}

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 || retryAfter > 60 {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	if got := w.Header().Get(HeaderRateLimitRemaining); got != "0" {
		t.Errorf("%s = %q, want 0", HeaderRateLimitRemaining, got)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(body) != 2 || body["error"] == nil || int(body["retryAfter"].(float64)) != retryAfter {
		t.Errorf("Expected {error, retryAfter}, got %v", body)
	}
}

func TestChatHandler_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		user       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"missing identity", "", helloBody, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"empty body", "u", "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"malformed JSON", "u", `{"messages":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"bad role", "u", `{"messages":[{"id":"1","role":"system","content":"x"}]}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"body too large", "u", `{"messages":[{"id":"1","role":"user","content":"` + strings.Repeat("a", 2048) + `"}]}`, http.StatusRequestEntityTooLarge, "CONTEXT_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := providertest.NewMockCompleter()
			h := NewChatHandler(newPipeline(t, completer), Options{MaxBodyBytes: 1024})

			w := post(h, "/api/chat", tt.user, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}

			var resp types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Invalid JSON: %v", err)
			}
			if resp.Code != tt.wantCode || resp.Error == "" {
				t.Errorf("Unexpected body: %+v", resp)
			}
			if completer.Calls() != 0 {
				t.Error("Provider must not be called for rejected requests")
			}
		})
	}
}

func TestChatHandler_ProviderBusy(t *testing.T) {
	completer := providertest.NewMockCompleter()
	completer.SetError(&providers.OverloadedError{Provider: "anthropic"})
	h := NewChatHandler(newPipeline(t, completer), Options{})

	w := post(h, "/api/chat", "u", helloBody)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want 30", got)
	}
	if w.Header().Get(HeaderRateLimitLimit) == "" {
		t.Error("Expected rate-limit headers on provider rejections")
	}
}

func TestChatHandler_MethodNotAllowed(t *testing.T) {
	recorder := &fakeRecorder{}
	h := NewChatHandler(newPipeline(t, providertest.NewMockCompleter()), Options{Metrics: recorder})

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != http.MethodPost {
		t.Errorf("Got %d Allow=%q", w.Code, w.Header().Get("Allow"))
	}
	if recorder.status != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 to be recorded, got %d", recorder.status)
	}
}

type stubAdmitter struct {
	err *admission.Error
}

func (s stubAdmitter) Admit(context.Context, *admission.Request) (*admission.Response, *admission.Error) {
	return nil, s.err
}

func TestWriteError_NoLimiterHeadersBeforeLimiter(t *testing.T) {
	h := NewChatHandler(stubAdmitter{err: &admission.Error{
		Status:  http.StatusForbidden,
		Code:    admission.CodeUsageLimit,
		Message: "Daily usage limit reached",
		Reason:  "You have used all 20 chat requests for today.",
	}}, Options{})

	w := post(h, "/api/chat", "u", helloBody)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Status = %d", w.Code)
	}
	if w.Header().Get(HeaderRateLimitLimit) != "" || w.Header().Get("Retry-After") != "" {
		t.Error("Expected no rate-limit headers when the limiter did not run")
	}
	if !strings.Contains(w.Body.String(), `"reason":"You have used all 20 chat requests for today."`) {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
}
