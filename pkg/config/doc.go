// Package config provides configuration management for Waypoint.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
//	if err := config.LoadDotEnv(".env"); err != nil {
//	    return err
//	}
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// An empty path skips the YAML file, so a deployment can be configured from
// the environment alone.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention WAYPOINT_SECTION_FIELD.
// For example:
//
//   - WAYPOINT_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - WAYPOINT_REDIS_URL overrides redis.url (and selects the Redis limiter)
//   - WAYPOINT_LLM_API_KEY overrides llm.api_key
//
// Values loaded by LoadDotEnv never replace variables already present in the
// process environment.
//
// # Configuration Precedence
//
//  1. Values from YAML file
//  2. Environment variable overrides
//  3. Default values for anything still unset (defined in defaults.go)
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//
//	session:
//	  max_context_tokens: 15000
//	  trim_tokens: 12000
//
//	rate_limits:
//	  chat:
//	    max_requests: 15
//	    window: 60s
//	  report:
//	    max_requests: 5
//	    window: 60s
//
//	redis:
//	  url: "redis://localhost:6379/0"
//
//	llm:
//	  model: "claude-sonnet-4-5"
package config
