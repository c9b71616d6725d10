package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = 1048576 // 1MB
	DefaultRequestTimeout  = 110 * time.Second
	DefaultTLSMinVersion   = "1.3"
	DefaultTLSReload       = 5 * time.Minute

	// Session defaults
	DefaultMaxContextTokens = 15000
	DefaultTrimTokens       = 12000
	DefaultCharsPerToken    = 4.0
	DefaultMaxMessageLength = 10000
	DefaultMaxMessages      = 200
	DefaultMaxIDLength      = 50

	// Rate limit defaults
	DefaultChatMaxRequests      = 15
	DefaultChatWindow           = 60 * time.Second
	DefaultReportMaxRequests    = 5
	DefaultReportWindow         = 60 * time.Second
	DefaultRateLimitMaxEntries  = 10000
	DefaultRedisTimeout         = 2 * time.Second
	DefaultFailClosedRetryAfter = 60 * time.Second
	DefaultRateLimitKeyPrefix   = "waypoint:ratelimit"
	DefaultRedisDialTimeout     = 2 * time.Second
	DefaultFingerprintHeader    = "X-Vercel-Forwarded-For"

	// Usage defaults
	DefaultUsageBackend       = "memory"
	DefaultUsageSQLitePath    = "data/usage.db"
	DefaultUsageRetentionDays = 30
	DefaultUsagePruneSchedule = "0 3 * * *"

	// LLM defaults
	DefaultLLMProvider           = "anthropic"
	DefaultLLMBaseURL            = "https://api.anthropic.com"
	DefaultLLMModel              = "claude-sonnet-4-5"
	DefaultLLMMaxTokens          = 1024
	DefaultLLMTimeout            = 60 * time.Second
	DefaultLLMMaxRetries         = 2
	DefaultLLMOverloadRetryAfter = 30 * time.Second

	// Secrets defaults
	DefaultSecretsEnvPrefix = "WAYPOINT_SECRET_"
	DefaultSecretsCacheTTL  = 5 * time.Minute

	// Auth defaults
	DefaultAuthMode   = "header"
	DefaultAuthHeader = "X-User-ID"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "waypoint"
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReload
	}

	applySessionDefaults(cfg)
	applyRateLimitDefaults(cfg)

	if cfg.Fingerprint.PlatformHeader == "" {
		cfg.Fingerprint.PlatformHeader = DefaultFingerprintHeader
	}

	// Usage defaults
	if cfg.Usage.Backend == "" {
		cfg.Usage.Backend = DefaultUsageBackend
	}
	if cfg.Usage.SQLitePath == "" {
		cfg.Usage.SQLitePath = DefaultUsageSQLitePath
	}
	if cfg.Usage.RetentionDays == 0 {
		cfg.Usage.RetentionDays = DefaultUsageRetentionDays
	}
	if cfg.Usage.PruneSchedule == "" {
		cfg.Usage.PruneSchedule = DefaultUsagePruneSchedule
	}

	applyLLMDefaults(cfg)

	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
	if cfg.Secrets.CacheTTL == 0 {
		cfg.Secrets.CacheTTL = DefaultSecretsCacheTTL
	}

	// Auth defaults
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = DefaultAuthMode
	}
	if cfg.Auth.Header == "" {
		cfg.Auth.Header = DefaultAuthHeader
	}

	applyTelemetryDefaults(cfg)
}

func applySessionDefaults(cfg *Config) {
	s := &cfg.Session
	if s.MaxContextTokens == 0 {
		s.MaxContextTokens = DefaultMaxContextTokens
	}
	if s.TrimTokens == 0 {
		s.TrimTokens = DefaultTrimTokens
	}
	if s.CharsPerToken == 0 {
		s.CharsPerToken = DefaultCharsPerToken
	}
	if s.MaxMessageLength == 0 {
		s.MaxMessageLength = DefaultMaxMessageLength
	}
	if s.MaxMessages == 0 {
		s.MaxMessages = DefaultMaxMessages
	}
	if s.MaxIDLength == 0 {
		s.MaxIDLength = DefaultMaxIDLength
	}
}

func applyRateLimitDefaults(cfg *Config) {
	r := &cfg.RateLimits
	if r.Chat.MaxRequests == 0 {
		r.Chat.MaxRequests = DefaultChatMaxRequests
	}
	if r.Chat.Window == 0 {
		r.Chat.Window = DefaultChatWindow
	}
	if r.Report.MaxRequests == 0 {
		r.Report.MaxRequests = DefaultReportMaxRequests
	}
	if r.Report.Window == 0 {
		r.Report.Window = DefaultReportWindow
	}
	if r.MaxEntries == 0 {
		r.MaxEntries = DefaultRateLimitMaxEntries
	}
	if r.RedisTimeout == 0 {
		r.RedisTimeout = DefaultRedisTimeout
	}
	if r.FailClosedRetryAfter == 0 {
		r.FailClosedRetryAfter = DefaultFailClosedRetryAfter
	}
	if r.KeyPrefix == "" {
		r.KeyPrefix = DefaultRateLimitKeyPrefix
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisDialTimeout
	}
}

func applyLLMDefaults(cfg *Config) {
	l := &cfg.LLM
	if l.Provider == "" {
		l.Provider = DefaultLLMProvider
	}
	if l.BaseURL == "" {
		l.BaseURL = DefaultLLMBaseURL
	}
	if l.Model == "" {
		l.Model = DefaultLLMModel
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = DefaultLLMMaxTokens
	}
	if l.Timeout == 0 {
		l.Timeout = DefaultLLMTimeout
	}
	if l.MaxRetries == 0 {
		l.MaxRetries = DefaultLLMMaxRetries
	}
	if l.OverloadRetryAfter == 0 {
		l.OverloadRetryAfter = DefaultLLMOverloadRetryAfter
	}
}

func applyTelemetryDefaults(cfg *Config) {
	t := &cfg.Telemetry
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Logging.RedactPII == nil {
		t.Logging.RedactPII = boolPtr(true)
	}
	if t.Metrics.Enabled == nil {
		t.Metrics.Enabled = boolPtr(true)
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
}

func boolPtr(b bool) *bool {
	return &b
}

