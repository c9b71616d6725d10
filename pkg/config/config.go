package config

import "time"

// Config is the root configuration structure for Waypoint.
// It contains all configuration sections for the HTTP server, admission
// limits, the LLM provider, prompts, identity and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts and body limits.
	Server ServerConfig `yaml:"server"`

	// Session contains conversation size limits: the context budget, the
	// trim budget and per-message validation bounds.
	Session SessionConfig `yaml:"session"`

	// RateLimits contains per-endpoint request rate limits.
	RateLimits RateLimitsConfig `yaml:"rate_limits"`

	// Redis contains the shared store connection. When URL is empty the
	// in-process rate limiter is used.
	Redis RedisConfig `yaml:"redis"`

	// Fingerprint contains client fingerprinting settings.
	Fingerprint FingerprintConfig `yaml:"fingerprint"`

	// Usage contains per-user quota and usage accounting settings.
	Usage UsageConfig `yaml:"usage"`

	// LLM contains the language model provider configuration.
	LLM LLMConfig `yaml:"llm"`

	// Prompts contains system prompt sources.
	Prompts PromptsConfig `yaml:"prompts"`

	// Auth contains identity resolution settings.
	Auth AuthConfig `yaml:"auth"`

	// Secrets contains the sources for ${secret:name} references in
	// llm.api_key, auth.jwt_secret and redis.url.
	Secrets SecretsConfig `yaml:"secrets"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must cover the LLM call.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits request body size.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// RequestTimeout bounds the handling of one API request, including the
	// LLM call and its retries.
	// Default: 110s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// AllowedOrigins lists the browser origins allowed to call the API.
	// Empty disables CORS headers; "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// TLS enables HTTPS termination in the server itself. Leave disabled when
	// the platform edge terminates TLS.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains HTTPS settings.
type TLSConfig struct {
	// Enabled turns on HTTPS.
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is the lowest accepted protocol version ("1.2" or "1.3").
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the certificate files are checked for
	// changes, so renewed certificates are picked up without a restart.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// SessionConfig contains conversation size limits.
type SessionConfig struct {
	// MaxContextTokens is the largest estimated context (system prompt plus
	// messages) admitted.
	// Default: 15000
	MaxContextTokens int `yaml:"max_context_tokens"`

	// TrimTokens is the history budget applied before the LLM call.
	// Default: 12000
	TrimTokens int `yaml:"trim_tokens"`

	// CharsPerToken is the estimator ratio.
	// Default: 4.0
	CharsPerToken float64 `yaml:"chars_per_token"`

	// MaxMessageLength is the largest accepted message content in characters.
	// Default: 10000
	MaxMessageLength int `yaml:"max_message_length"`

	// MaxMessages is the largest accepted conversation length.
	// Default: 200
	MaxMessages int `yaml:"max_messages"`

	// MaxIDLength is the largest accepted message ID in characters.
	// Default: 50
	MaxIDLength int `yaml:"max_id_length"`
}

// RateLimitsConfig contains per-endpoint request rate limits.
type RateLimitsConfig struct {
	// Chat limits the chat endpoint.
	// Default: 15 requests per 60s
	Chat LimiterConfig `yaml:"chat"`

	// Report limits the report endpoint.
	// Default: 5 requests per 60s
	Report LimiterConfig `yaml:"report"`

	// MaxEntries bounds the in-process limiter map before pruning.
	// Default: 10000
	MaxEntries int `yaml:"max_entries"`

	// RedisTimeout bounds each Redis round trip.
	// Default: 2s
	RedisTimeout time.Duration `yaml:"redis_timeout"`

	// FailClosedRetryAfter is reported to clients when Redis is unavailable.
	// Default: 60s
	FailClosedRetryAfter time.Duration `yaml:"fail_closed_retry_after"`

	// KeyPrefix namespaces Redis keys.
	// Default: "waypoint:ratelimit"
	KeyPrefix string `yaml:"key_prefix"`
}

// LimiterConfig configures one named limiter.
type LimiterConfig struct {
	// MaxRequests is the number of requests allowed per window.
	MaxRequests int64 `yaml:"max_requests"`

	// Window is the limiting window.
	Window time.Duration `yaml:"window"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	// URL is a redis:// or rediss:// connection URL. Empty disables Redis.
	URL string `yaml:"url"`

	// DialTimeout bounds connection establishment.
	// Default: 2s
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// PoolSize is the maximum number of connections (0 = library default).
	PoolSize int `yaml:"pool_size"`
}

// Enabled reports whether a Redis URL is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// FingerprintConfig contains client fingerprinting settings.
type FingerprintConfig struct {
	// PlatformHeader names the edge-verified client address header.
	// Default: "X-Vercel-Forwarded-For"
	PlatformHeader string `yaml:"platform_header"`
}

// UsageConfig contains per-user quota settings.
type UsageConfig struct {
	// Backend selects the usage store.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the sqlite backend.
	// Default: "data/usage.db"
	SQLitePath string `yaml:"sqlite_path"`

	// ChatDailyQuota is the number of chat requests a user may make per UTC
	// day (0 = unlimited).
	// Default: 0
	ChatDailyQuota int64 `yaml:"chat_daily_quota"`

	// ReportDailyQuota is the number of report requests a user may make per
	// UTC day (0 = unlimited).
	// Default: 0
	ReportDailyQuota int64 `yaml:"report_daily_quota"`

	// RetentionDays is how long usage records are kept.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for retention pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// LLMConfig contains the language model provider configuration.
type LLMConfig struct {
	// Provider selects the backend.
	// Options: "anthropic"
	// Default: "anthropic"
	Provider string `yaml:"provider"`

	// BaseURL is the API base URL.
	// Default: "https://api.anthropic.com"
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates with the provider. Usually set through
	// WAYPOINT_LLM_API_KEY.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier.
	// Default: "claude-sonnet-4-5"
	Model string `yaml:"model"`

	// MaxTokens bounds the completion length.
	// Default: 1024
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds one completion call including retries.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries on transient failures.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`

	// OverloadRetryAfter is reported to clients when the provider is busy
	// and gives no hint.
	// Default: 30s
	OverloadRetryAfter time.Duration `yaml:"overload_retry_after"`

	// Pricing adds or overrides per-model prices used for cost accounting.
	// Keys match a model exactly or as a prefix ("claude-sonnet-4" matches
	// "claude-sonnet-4-5"). Built-in prices cover the Claude model families.
	Pricing map[string]ModelPrice `yaml:"pricing"`
}

// ModelPrice is the USD price of one million tokens.
type ModelPrice struct {
	Input  float64 `yaml:"input_per_mtok"`
	Output float64 `yaml:"output_per_mtok"`
}

// SecretsConfig contains secret reference sources.
type SecretsConfig struct {
	// Dir holds one file per secret, named after the secret, as mounted by
	// Kubernetes or Docker secrets. Empty disables the file source.
	Dir string `yaml:"dir"`

	// EnvPrefix prefixes the environment variable consulted for a secret:
	// "anthropic-key" is read from {EnvPrefix}ANTHROPIC_KEY.
	// Default: "WAYPOINT_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// CacheTTL bounds how long a resolved secret is reused.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// PromptsConfig contains system prompt sources.
type PromptsConfig struct {
	// ChatFile overrides the built-in chat system prompt.
	ChatFile string `yaml:"chat_file"`

	// ReportFile overrides the built-in report system prompt.
	ReportFile string `yaml:"report_file"`

	// Watch reloads prompt files when they change.
	// Default: false
	Watch bool `yaml:"watch"`
}

// AuthConfig contains identity resolution settings.
type AuthConfig struct {
	// Mode selects the resolver.
	// Options: "header", "jwt"
	// Default: "header"
	Mode string `yaml:"mode"`

	// Header names the trusted user ID header for "header" mode.
	// Default: "X-User-ID"
	Header string `yaml:"header"`

	// JWTSecret is the HMAC secret for "jwt" mode.
	JWTSecret string `yaml:"jwt_secret"`

	// Issuer, when set, must match the token's iss claim.
	Issuer string `yaml:"issuer"`

	// Audience, when set, must be present in the token's aud claim.
	Audience string `yaml:"audience"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII masks emails, bearer tokens and IP addresses in log output.
	// Default: true
	RedactPII *bool `yaml:"redact_pii"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the Prometheus endpoint is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service name in traces.
	// Default: "waypoint"
	ServiceName string `yaml:"service_name"`
}

// RedactEnabled reports whether PII redaction is on.
func (c LoggingConfig) RedactEnabled() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// IsEnabled reports whether the metrics endpoint is served.
func (c MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
