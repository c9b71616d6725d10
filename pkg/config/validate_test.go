package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(MinimalConfig()); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(&Config{})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(verr.Errors))
	}
	if !strings.Contains(verr.Error(), "errors:") {
		t.Errorf("error message should mention multiple errors: %s", verr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"trim above context", func(c *Config) { c.Session.TrimTokens = c.Session.MaxContextTokens + 1 }, "session.trim_tokens"},
		{"zero chat window", func(c *Config) { c.RateLimits.Chat.Window = 0 }, "rate_limits.chat.window"},
		{"negative report max", func(c *Config) { c.RateLimits.Report.MaxRequests = -1 }, "rate_limits.report.max_requests"},
		{"bad redis scheme", func(c *Config) { c.Redis.URL = "http://localhost:6379" }, "redis.url"},
		{"unknown usage backend", func(c *Config) { c.Usage.Backend = "mongo" }, "usage.backend"},
		{"bad cron", func(c *Config) { c.Usage.PruneSchedule = "every day" }, "usage.prune_schedule"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "other" }, "llm.provider"},
		{"relative base url", func(c *Config) { c.LLM.BaseURL = "/v1" }, "llm.base_url"},
		{"jwt without secret", func(c *Config) { c.Auth.Mode = "jwt" }, "auth.jwt_secret"},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "basic" }, "auth.mode"},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "verbose" }, "telemetry.logging.level"},
		{"tracing without endpoint", func(c *Config) { c.Telemetry.Tracing.Enabled = true }, "telemetry.tracing.endpoint"},
		{"tls without cert", func(c *Config) { c.Server.TLS = TLSConfig{Enabled: true, KeyFile: "k.pem", MinVersion: "1.3"} }, "server.tls.cert_file"},
		{"tls 1.1", func(c *Config) {
			c.Server.TLS = TLSConfig{Enabled: true, CertFile: "c.pem", KeyFile: "k.pem", MinVersion: "1.1"}
		}, "server.tls.min_version"},
		{"negative price", func(c *Config) {
			c.LLM.Pricing = map[string]ModelPrice{"claude-x": {Input: -1}}
		}, "llm.pricing.claude-x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.field, verr)
			}
		})
	}
}

func TestValidate_Builder(t *testing.T) {
	cfg := NewTestConfig().
		WithRedis("rediss://cache.internal:6380/0").
		WithJWT("secret").
		Build()

	if err := Validate(cfg); err != nil {
		t.Errorf("expected builder config to be valid, got %v", err)
	}
}

func TestValidate_SecretReferences(t *testing.T) {
	cfg := MinimalConfig()
	cfg.Redis.URL = "${secret:redis-url}"
	cfg.Auth.Mode = "jwt"
	cfg.Auth.JWTSecret = "${secret:jwt-secret}"

	if err := Validate(cfg); err != nil {
		t.Errorf("secret references should pass validation, got %v", err)
	}
}

func TestIsSecretRef(t *testing.T) {
	tests := map[string]bool{
		"${secret:api-key}":        true,
		"redis://localhost:6379":   false,
		"${secret:unterminated":    false,
		"prefix ${secret:api-key}": false,
	}
	for in, want := range tests {
		if got := IsSecretRef(in); got != want {
			t.Errorf("IsSecretRef(%q) = %v, want %v", in, got, want)
		}
	}
}
