package anthropic

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pathfinder-hq/waypoint/pkg/providers"
)

const (
	// ProviderName is the name used in errors, logs and metrics.
	ProviderName = "anthropic"

	// APIVersion is the anthropic-version header value.
	APIVersion = "2023-06-01"

	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultMaxTokens is used when neither the request nor the config sets one.
	DefaultMaxTokens = 1024

	// OverloadedErrorType is the error body type sent when the API is at
	// capacity.
	OverloadedErrorType = "overloaded_error"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int

	// InitialBackoff overrides the first retry delay (tests use a few ms).
	InitialBackoff time.Duration

	// HTTPClient replaces the pooled client. Optional.
	HTTPClient *http.Client
}

// Client calls the Anthropic Messages API. It implements providers.Completer.
type Client struct {
	http      *providers.HTTPClient
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewClient creates a Messages API client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: ProviderName,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}
	if cfg.Model == "" {
		return nil, &providers.ConfigError{
			Provider: ProviderName,
			Field:    "model",
			Message:  "model is required",
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := providers.NewHTTPClient(providers.ClientConfig{
		Name:            ProviderName,
		Timeout:         cfg.Timeout,
		MaxRetries:      cfg.MaxRetries,
		InitialBackoff:  cfg.InitialBackoff,
		OverloadedTypes: []string{OverloadedErrorType},
		ParseErrorBody:  parseErrorBody,
		HTTPClient:      cfg.HTTPClient,
	}, logger)

	logger.Info("anthropic client initialized",
		"base_url", cfg.BaseURL,
		"model", cfg.Model,
		"max_retries", cfg.MaxRetries,
	)

	return &Client{
		http:      httpClient,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.With("component", "providers.anthropic"),
	}, nil
}

// Name returns "anthropic".
func (c *Client) Name() string {
	return ProviderName
}

// Model returns the default model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one Messages API request.
func (c *Client) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.Completion, error) {
	body, err := transformRequest(req, c.model, c.maxTokens)
	if err != nil {
		return nil, &providers.ProviderError{Provider: ProviderName, Message: "invalid request", Cause: err}
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": APIVersion,
		"Content-Type":      "application/json",
	}

	var resp MessagesResponse
	if err := c.http.DoJSONRequest(ctx, http.MethodPost, c.baseURL+"/v1/messages", body, &resp, headers); err != nil {
		return nil, err
	}

	completion, err := transformResponse(&resp)
	if err != nil {
		return nil, &providers.ParseError{Provider: ProviderName, Cause: err}
	}

	c.logger.DebugContext(ctx, "completion succeeded",
		"model", completion.Model,
		"stop_reason", completion.StopReason,
		"input_tokens", completion.Usage.InputTokens,
		"output_tokens", completion.Usage.OutputTokens,
	)
	return completion, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}
