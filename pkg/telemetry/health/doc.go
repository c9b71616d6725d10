// Package health provides the liveness, readiness and version probes.
//
// Liveness never touches dependencies. Readiness runs the registered
// checks concurrently, each bounded by a timeout, and fails when any of
// them fails:
//
//	checker := health.New(3 * time.Second)
//	checker.Register("redis", limits.Ping)
//	mux.Handle("GET /health", checker.LivenessHandler())
//	mux.Handle("GET /ready", checker.ReadinessHandler())
//
// A failing readiness check never changes admission behavior; the rate
// limiter keeps failing closed on its own.
package health
