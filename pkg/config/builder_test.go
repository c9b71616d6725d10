package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with defaults applied.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	var cfg Config
	cfg.LLM.APIKey = "test-key"
	ApplyDefaults(&cfg)
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithChatLimit sets the chat limiter.
func (b *ConfigBuilder) WithChatLimit(max int64, window time.Duration) *ConfigBuilder {
	b.cfg.RateLimits.Chat = LimiterConfig{MaxRequests: max, Window: window}
	return b
}

// WithRedis sets the Redis URL.
func (b *ConfigBuilder) WithRedis(url string) *ConfigBuilder {
	b.cfg.Redis.URL = url
	return b
}

// WithJWT switches identity resolution to JWT mode.
func (b *ConfigBuilder) WithJWT(secret string) *ConfigBuilder {
	b.cfg.Auth.Mode = "jwt"
	b.cfg.Auth.JWTSecret = secret
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
