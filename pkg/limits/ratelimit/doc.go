// Package ratelimit provides per-identifier request rate limiting with two
// interchangeable backends.
//
// # Overview
//
// Every backend implements Limiter:
//
//	result := limiter.Check(ctx, identifier)
//	if !result.Allowed {
//	    // respond 429 with Retry-After: result.RetryAfterSeconds()
//	}
//
// Backends:
//
//   - MemoryLimiter: fixed window counters in a mutex-protected map. Exact
//     within one process, but every process has its own map, so it does not
//     coordinate across replicas. Suitable for single-instance deployments
//     and tests.
//   - RedisLimiter: delegates to a WindowStore (RedisStore in production),
//     an atomic sliding-window log evaluated by a Lua script. Shared by all
//     replicas.
//
// # Failure Policy
//
// RedisLimiter fails closed. When the store cannot be reached or does not
// answer before the timeout, the request is denied with a conservative
// retry delay (60s by default) and the result is marked Degraded. An outage
// of the limiting infrastructure must never turn into unlimited traffic.
//
// # Memory Bound
//
// MemoryLimiter prunes expired records when the map grows past MaxEntries,
// stopping once it is below 80% of the ceiling. Pruning only happens while
// new identifiers arrive, so stale records can linger in an idle process.
// This bounds memory; it is not an exact TTL.
package ratelimit
