package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateSession(&cfg.Session)...)
	errs = append(errs, validateRateLimits(&cfg.RateLimits, &cfg.Redis)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateLLM(&cfg.LLM)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "listen address is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{"server.read_timeout", "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{"server.write_timeout", "write timeout must be positive"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{"server.max_body_bytes", "max body bytes must be non-negative"})
	}
	if cfg.RequestTimeout < 0 {
		errs = append(errs, FieldError{"server.request_timeout", "request timeout must be positive"})
	}
	errs = append(errs, validateTLS(&cfg.TLS)...)

	return errs
}

// IsSecretRef reports whether value is a ${secret:name} reference, which is
// resolved at startup and cannot be validated here.
func IsSecretRef(value string) bool {
	return strings.HasPrefix(value, "${secret:") && strings.HasSuffix(value, "}")
}

func validateTLS(cfg *TLSConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}
	var errs []FieldError

	if cfg.CertFile == "" {
		errs = append(errs, FieldError{"server.tls.cert_file", "required when TLS is enabled"})
	}
	if cfg.KeyFile == "" {
		errs = append(errs, FieldError{"server.tls.key_file", "required when TLS is enabled"})
	}
	if cfg.MinVersion != "1.2" && cfg.MinVersion != "1.3" {
		errs = append(errs, FieldError{"server.tls.min_version", fmt.Sprintf("unsupported version %q (want 1.2 or 1.3)", cfg.MinVersion)})
	}
	if cfg.ReloadInterval < 0 {
		errs = append(errs, FieldError{"server.tls.reload_interval", "must be non-negative"})
	}

	return errs
}

func validateSession(cfg *SessionConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxContextTokens <= 0 {
		errs = append(errs, FieldError{"session.max_context_tokens", "must be positive"})
	}
	if cfg.TrimTokens <= 0 {
		errs = append(errs, FieldError{"session.trim_tokens", "must be positive"})
	}
	if cfg.TrimTokens > cfg.MaxContextTokens {
		errs = append(errs, FieldError{
			Field:   "session.trim_tokens",
			Message: fmt.Sprintf("trim budget %d exceeds max context tokens %d", cfg.TrimTokens, cfg.MaxContextTokens),
		})
	}
	if cfg.CharsPerToken <= 0 {
		errs = append(errs, FieldError{"session.chars_per_token", "must be positive"})
	}
	if cfg.MaxMessageLength <= 0 {
		errs = append(errs, FieldError{"session.max_message_length", "must be positive"})
	}
	if cfg.MaxMessages <= 0 {
		errs = append(errs, FieldError{"session.max_messages", "must be positive"})
	}
	if cfg.MaxIDLength <= 0 {
		errs = append(errs, FieldError{"session.max_id_length", "must be positive"})
	}

	return errs
}

func validateRateLimits(cfg *RateLimitsConfig, redisCfg *RedisConfig) []FieldError {
	var errs []FieldError

	for name, l := range map[string]LimiterConfig{"chat": cfg.Chat, "report": cfg.Report} {
		if l.MaxRequests <= 0 {
			errs = append(errs, FieldError{"rate_limits." + name + ".max_requests", "must be positive"})
		}
		if l.Window <= 0 {
			errs = append(errs, FieldError{"rate_limits." + name + ".window", "must be positive"})
		}
	}
	if cfg.MaxEntries <= 0 {
		errs = append(errs, FieldError{"rate_limits.max_entries", "must be positive"})
	}
	if cfg.RedisTimeout <= 0 {
		errs = append(errs, FieldError{"rate_limits.redis_timeout", "must be positive"})
	}

	if redisCfg.URL != "" && !IsSecretRef(redisCfg.URL) {
		u, err := url.Parse(redisCfg.URL)
		if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			errs = append(errs, FieldError{"redis.url", "must be a redis:// or rediss:// URL"})
		}
	}

	return errs
}

func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, FieldError{"usage.sqlite_path", "path is required for the sqlite backend"})
		}
	default:
		errs = append(errs, FieldError{"usage.backend", fmt.Sprintf("unknown backend %q (want memory or sqlite)", cfg.Backend)})
	}
	if cfg.ChatDailyQuota < 0 {
		errs = append(errs, FieldError{"usage.chat_daily_quota", "must be non-negative"})
	}
	if cfg.ReportDailyQuota < 0 {
		errs = append(errs, FieldError{"usage.report_daily_quota", "must be non-negative"})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{"usage.retention_days", "must be non-negative"})
	}
	if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
		errs = append(errs, FieldError{"usage.prune_schedule", fmt.Sprintf("invalid cron expression: %v", err)})
	}

	return errs
}

func validateLLM(cfg *LLMConfig) []FieldError {
	var errs []FieldError

	if cfg.Provider != "anthropic" {
		errs = append(errs, FieldError{"llm.provider", fmt.Sprintf("unknown provider %q", cfg.Provider)})
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{"llm.base_url", "must be an absolute URL"})
	}
	if cfg.Model == "" {
		errs = append(errs, FieldError{"llm.model", "model is required"})
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, FieldError{"llm.max_tokens", "must be positive"})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{"llm.timeout", "must be positive"})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{"llm.max_retries", "must be non-negative"})
	}
	for model, price := range cfg.Pricing {
		if price.Input < 0 || price.Output < 0 {
			errs = append(errs, FieldError{"llm.pricing." + model, "prices must be non-negative"})
		}
	}

	return errs
}

func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case "header":
		if cfg.Header == "" {
			errs = append(errs, FieldError{"auth.header", "header name is required in header mode"})
		}
	case "jwt":
		if cfg.JWTSecret == "" {
			errs = append(errs, FieldError{"auth.jwt_secret", "secret is required in jwt mode"})
		}
	default:
		errs = append(errs, FieldError{"auth.mode", fmt.Sprintf("unknown mode %q (want header or jwt)", cfg.Mode)})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("invalid level %q", cfg.Logging.Level)})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("invalid format %q", cfg.Logging.Format)})
	}
	if cfg.Metrics.IsEnabled() && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "path must start with /"})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{"telemetry.tracing.endpoint", "endpoint is required when tracing is enabled"})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{"telemetry.tracing.sample_ratio", "must be between 0 and 1"})
	}

	return errs
}
