package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "WAYPOINT_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg, err := parseFile(path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention WAYPOINT_SECTION_FIELD (e.g., WAYPOINT_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file: the result is defaults plus overrides.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply environment variable overrides
// 3. Apply default values
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = parseFile(path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func parseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return &cfg, nil
}

// envOverride binds one environment variable to a setter.
type envOverride struct {
	name string
	set  func(val string) error
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed values are reported instead of silently ignored.
func applyEnvOverrides(cfg *Config) error {
	overrides := []envOverride{
		// Server
		{"SERVER_LISTEN_ADDRESS", setString(&cfg.Server.ListenAddress)},
		{"SERVER_READ_TIMEOUT", setDuration(&cfg.Server.ReadTimeout)},
		{"SERVER_WRITE_TIMEOUT", setDuration(&cfg.Server.WriteTimeout)},
		{"SERVER_SHUTDOWN_TIMEOUT", setDuration(&cfg.Server.ShutdownTimeout)},
		{"SERVER_REQUEST_TIMEOUT", setDuration(&cfg.Server.RequestTimeout)},
		{"SERVER_ALLOWED_ORIGINS", setList(&cfg.Server.AllowedOrigins)},
		{"SERVER_TLS_ENABLED", setBool(&cfg.Server.TLS.Enabled)},
		{"SERVER_TLS_CERT_FILE", setString(&cfg.Server.TLS.CertFile)},
		{"SERVER_TLS_KEY_FILE", setString(&cfg.Server.TLS.KeyFile)},

		// Session
		{"SESSION_MAX_CONTEXT_TOKENS", setInt(&cfg.Session.MaxContextTokens)},
		{"SESSION_TRIM_TOKENS", setInt(&cfg.Session.TrimTokens)},
		{"SESSION_MAX_MESSAGE_LENGTH", setInt(&cfg.Session.MaxMessageLength)},
		{"SESSION_MAX_MESSAGES", setInt(&cfg.Session.MaxMessages)},

		// Rate limits
		{"RATE_LIMITS_CHAT_MAX_REQUESTS", setInt64(&cfg.RateLimits.Chat.MaxRequests)},
		{"RATE_LIMITS_CHAT_WINDOW", setDuration(&cfg.RateLimits.Chat.Window)},
		{"RATE_LIMITS_REPORT_MAX_REQUESTS", setInt64(&cfg.RateLimits.Report.MaxRequests)},
		{"RATE_LIMITS_REPORT_WINDOW", setDuration(&cfg.RateLimits.Report.Window)},
		{"RATE_LIMITS_REDIS_TIMEOUT", setDuration(&cfg.RateLimits.RedisTimeout)},
		{"RATE_LIMITS_KEY_PREFIX", setString(&cfg.RateLimits.KeyPrefix)},

		// Redis
		{"REDIS_URL", setString(&cfg.Redis.URL)},

		// Fingerprint
		{"FINGERPRINT_PLATFORM_HEADER", setString(&cfg.Fingerprint.PlatformHeader)},

		// Usage
		{"USAGE_BACKEND", setString(&cfg.Usage.Backend)},
		{"USAGE_SQLITE_PATH", setString(&cfg.Usage.SQLitePath)},
		{"USAGE_CHAT_DAILY_QUOTA", setInt64(&cfg.Usage.ChatDailyQuota)},
		{"USAGE_REPORT_DAILY_QUOTA", setInt64(&cfg.Usage.ReportDailyQuota)},

		// LLM
		{"LLM_BASE_URL", setString(&cfg.LLM.BaseURL)},
		{"LLM_API_KEY", setString(&cfg.LLM.APIKey)},
		{"LLM_MODEL", setString(&cfg.LLM.Model)},
		{"LLM_MAX_TOKENS", setInt(&cfg.LLM.MaxTokens)},
		{"LLM_TIMEOUT", setDuration(&cfg.LLM.Timeout)},

		// Prompts
		{"PROMPTS_CHAT_FILE", setString(&cfg.Prompts.ChatFile)},
		{"PROMPTS_REPORT_FILE", setString(&cfg.Prompts.ReportFile)},
		{"PROMPTS_WATCH", setBool(&cfg.Prompts.Watch)},

		// Auth
		{"AUTH_MODE", setString(&cfg.Auth.Mode)},
		{"AUTH_HEADER", setString(&cfg.Auth.Header)},
		{"AUTH_JWT_SECRET", setString(&cfg.Auth.JWTSecret)},
		{"AUTH_ISSUER", setString(&cfg.Auth.Issuer)},

		// Secrets
		{"SECRETS_DIR", setString(&cfg.Secrets.Dir)},

		// Telemetry
		{"TELEMETRY_LOGGING_LEVEL", setString(&cfg.Telemetry.Logging.Level)},
		{"TELEMETRY_LOGGING_FORMAT", setString(&cfg.Telemetry.Logging.Format)},
		{"TELEMETRY_TRACING_ENABLED", setBool(&cfg.Telemetry.Tracing.Enabled)},
		{"TELEMETRY_TRACING_ENDPOINT", setString(&cfg.Telemetry.Tracing.Endpoint)},
	}

	var errs []FieldError
	for _, o := range overrides {
		val, ok := os.LookupEnv(EnvPrefix + o.name)
		if !ok || val == "" {
			continue
		}
		if err := o.set(val); err != nil {
			errs = append(errs, FieldError{
				Field:   EnvPrefix + o.name,
				Message: err.Error(),
			})
		}
	}
	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(val string) error {
		*dst = val
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(val string) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid integer %q", val)
		}
		*dst = i
		return nil
	}
}

func setInt64(dst *int64) func(string) error {
	return func(val string) error {
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", val)
		}
		*dst = i
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", val)
		}
		*dst = b
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q", val)
		}
		*dst = d
		return nil
	}
}

// setList splits a comma-separated value, dropping empty items.
func setList(dst *[]string) func(string) error {
	return func(val string) error {
		var items []string
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		*dst = items
		return nil
	}
}
