// Package providertest provides test doubles for LLM providers: an HTTP
// server that speaks the Messages API and an in-process Completer.
package providertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a mock HTTP server for testing provider adapters.
// Queued responses are served in order; once the queue is empty the default
// response is repeated.
type MockServer struct {
	server *httptest.Server

	mu       sync.Mutex
	queue    []MockResponse
	fallback MockResponse
	requests []RecordedRequest
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string
}

// RecordedRequest is a request seen by the server.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// NewMockServer creates a server answering POST /v1/messages.
func NewMockServer() *MockServer {
	ms := &MockServer{
		fallback: MockResponse{StatusCode: http.StatusOK, Body: MessagesResponse("ok", "claude-test", 10, 5)},
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetDefault sets the response served when the queue is empty.
func (ms *MockServer) SetDefault(resp MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.fallback = resp
}

// Enqueue appends responses served before the default.
func (ms *MockServer) Enqueue(resps ...MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.queue = append(ms.queue, resps...)
}

// Requests returns the requests received so far.
func (ms *MockServer) Requests() []RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]RecordedRequest, len(ms.requests))
	copy(out, ms.requests)
	return out
}

// RequestCount returns the number of requests received.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.requests)
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requests = append(ms.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	if r.Method != http.MethodPost || r.URL.Path != "/v1/messages" {
		ms.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	response := ms.fallback
	if len(ms.queue) > 0 {
		response = ms.queue[0]
		ms.queue = ms.queue[1:]
	}
	ms.mu.Unlock()

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.StatusCode)

	switch v := response.Body.(type) {
	case nil:
	case string:
		_, _ = w.Write([]byte(v))
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

// MessagesResponse builds a successful Messages API response body.
func MessagesResponse(content, model string, inputTokens, outputTokens int) map[string]any {
	return map[string]any{
		"id":    "msg_test",
		"type":  "message",
		"role":  "assistant",
		"model": model,
		"content": []map[string]any{
			{"type": "text", "text": content},
		},
		"stop_reason": "end_turn",
		"usage": map[string]any{
			"input_tokens":  inputTokens,
			"output_tokens": outputTokens,
		},
	}
}

// ErrorResponse builds a Messages API error body.
func ErrorResponse(errType, message string) map[string]any {
	return map[string]any{
		"type": "error",
		"error": map[string]any{
			"type":    errType,
			"message": message,
		},
	}
}
