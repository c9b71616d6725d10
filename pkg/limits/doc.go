// Package limits provides the admission limits applied to LLM-backed
// requests.
//
// # Architecture
//
// The package is organized into sub-packages:
//
//   - ratelimit: per-identifier request rate limiting (in-process or Redis)
//   - budget: context-size budget checks against an estimated token count
//   - usage: per-user daily quotas and usage accounting
//
// This package wires the named rate limiter instances and their metrics:
//
//	var client redis.UniversalClient
//	if cfg.Redis.Enabled() {
//	    client, err = limits.NewRedisClient(cfg.Redis)
//	}
//	l := limits.NewLimits(&cfg.RateLimits, client, logger, limits.NewMetrics(nil))
//
//	result := l.Chat.Check(ctx, userID+":"+fingerprint)
//
// # Thread Safety
//
// All limiters are safe for concurrent use.
package limits
