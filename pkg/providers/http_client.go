package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"pathfinder-hq/waypoint/pkg/telemetry/tracing"
)

// Transport defaults for provider clients.
const (
	DefaultInitialBackoff      = 500 * time.Millisecond
	DefaultMaxBackoff          = 8 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 64 << 10

// ErrorBodyParser extracts the provider's error type and message from an
// error response body. ok is false when the body is not in the provider's
// error format.
type ErrorBodyParser func(body []byte) (errType, message string, ok bool)

// ClientConfig configures an HTTPClient.
type ClientConfig struct {
	// Name is the provider name used in errors, logs and metrics.
	Name string

	// Timeout bounds one attempt. The caller's context bounds the whole call.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialBackoff is the first retry delay.
	// Default: 500ms
	InitialBackoff time.Duration

	// MaxBackoff caps a single retry delay.
	// Default: 8s
	MaxBackoff time.Duration

	// OverloadedTypes lists error body types treated as overload.
	OverloadedTypes []string

	// ParseErrorBody decodes provider error bodies. Optional.
	ParseErrorBody ErrorBodyParser

	// HTTPClient replaces the pooled client. Optional.
	HTTPClient *http.Client
}

// HTTPClient is the shared HTTP layer of provider adapters. It handles
// connection pooling, retries with exponential backoff, error typing and
// trace propagation.
//
// Retried: network errors and 5xx other than 529. Not retried: 4xx, 529 and
// overload error bodies, which surface immediately so the caller can shed
// load instead of piling on.
type HTTPClient struct {
	config ClientConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClient creates a pooled HTTP client for a provider.
func NewHTTPClient(cfg ClientConfig, logger *slog.Logger) *HTTPClient {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        DefaultMaxIdleConns,
				MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
				IdleConnTimeout:     DefaultIdleConnTimeout,
				ForceAttemptHTTP2:   true,
			},
			Timeout: cfg.Timeout,
		}
	}

	return &HTTPClient{
		config: cfg,
		client: client,
		logger: logger.With("component", "providers.http", "provider", cfg.Name),
	}
}

// Name returns the provider name.
func (c *HTTPClient) Name() string {
	return c.config.Name
}

// DoRequest performs an HTTP request with retries. On success the caller
// owns the response body.
func (c *HTTPClient) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	attempt := 0
	operation := func() (*http.Response, error) {
		attempt++
		resp, err := c.doOnce(ctx, method, url, body, headers)
		if err == nil {
			return resp, nil
		}
		if !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.config.InitialBackoff
	policy.MaxInterval = c.config.MaxBackoff

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.config.MaxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.WarnContext(ctx, "provider request failed, will retry",
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"backoff", next,
				"error", err,
			)
		}),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		if ctx.Err() != nil && !isTimeout(err) {
			err = &TimeoutError{Provider: c.config.Name, Timeout: c.config.Timeout, Cause: ctx.Err()}
		}
		return nil, err
	}
	return resp, nil
}

func (c *HTTPClient) doOnce(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tracing.Inject(ctx, req.Header)

	c.logger.DebugContext(ctx, "sending request to provider", "method", method, "url", url)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutError{Provider: c.config.Name, Timeout: c.config.Timeout, Cause: err}
		}
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()

	return nil, c.statusError(resp, errorBody)
}

// statusError maps a non-2xx response to a typed error.
func (c *HTTPClient) statusError(resp *http.Response, body []byte) error {
	errType, message := "", string(body)
	if c.config.ParseErrorBody != nil {
		if t, m, ok := c.config.ParseErrorBody(body); ok {
			errType, message = t, m
		}
	}
	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))

	if c.isOverloaded(resp.StatusCode, errType) {
		return &OverloadedError{Provider: c.config.Name, RetryAfter: retryAfter, Message: message}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Provider: c.config.Name, Message: message}
	case http.StatusTooManyRequests:
		return &RateLimitError{Provider: c.config.Name, RetryAfter: retryAfter, Message: message}
	default:
		return &ProviderError{
			Provider:   c.config.Name,
			StatusCode: resp.StatusCode,
			Type:       errType,
			Message:    message,
		}
	}
}

func (c *HTTPClient) isOverloaded(status int, errType string) bool {
	if status == StatusOverloaded {
		return true
	}
	for _, t := range c.config.OverloadedTypes {
		if errType == t {
			return true
		}
	}
	return false
}

// DoJSONRequest performs a JSON request and decodes the response.
func (c *HTTPClient) DoJSONRequest(ctx context.Context, method, url string, reqBody, respBody any, headers map[string]string) error {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ParseError{
			Provider: c.config.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ParseError{
				Provider:    c.config.Name,
				RawResponse: string(responseBytes),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			}
		}
	}
	return nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// StatusOverloaded is the non-standard status some providers return when
// they are at capacity.
const StatusOverloaded = 529

func retryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.StatusCode >= 500
	}
	var (
		authErr     *AuthError
		rateErr     *RateLimitError
		overloadErr *OverloadedError
		parseErr    *ParseError
	)
	if errors.As(err, &authErr) || errors.As(err, &rateErr) ||
		errors.As(err, &overloadErr) || errors.As(err, &parseErr) || isTimeout(err) {
		return false
	}
	// Transport errors.
	return true
}

func isTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
