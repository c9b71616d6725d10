// Package secrets resolves ${secret:name} references in configuration.
//
// Sensitive settings (llm.api_key, auth.jwt_secret, redis.url) may hold a
// reference instead of a literal value:
//
//	llm:
//	  api_key: ${secret:anthropic-api-key}
//
// At startup the server resolves each reference through an ordered list of
// providers:
//
//   - FileProvider reads {secrets.dir}/anthropic-api-key, the layout of a
//     Kubernetes or Docker secret mount. Files readable by other users are
//     refused.
//   - EnvProvider reads WAYPOINT_SECRET_ANTHROPIC_API_KEY.
//
// The first provider holding the secret wins. Resolved values are cached for
// secrets.cache_ttl and are never logged.
//
// # Usage
//
//	manager := secrets.NewManager([]secrets.Provider{
//	    fileProvider,
//	    secrets.NewEnvProvider("WAYPOINT_SECRET_"),
//	}, secrets.NewCache(5*time.Minute), logger)
//
//	err := manager.ResolveAll(ctx, map[string]*string{
//	    "llm.api_key": &cfg.LLM.APIKey,
//	})
package secrets
