// Package server assembles the Waypoint API server from configuration.
//
// New builds every component once: the tracer, the Prometheus collector, the
// rate limiters (Redis or in-process), the usage store and its retention
// scheduler, the prompt library and optional file watcher, and the
// instrumented LLM client. The admission pipeline is wired from those and
// served behind the middleware chain.
//
// # Routes
//
//	POST /api/chat     chat turn
//	POST /api/report   report generation
//	GET  /health       liveness
//	GET  /ready        readiness: redis, usage_store and provider checks
//	GET  /version      build information
//	GET  /metrics      Prometheus metrics (path configurable)
//
// # Basic Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//	if err != nil {
//	    return err
//	}
//	srv, err := server.New(cfg, server.Options{Logger: logger, Version: version})
//	if err != nil {
//	    return err
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	return srv.Run(ctx)
//
// # Graceful Shutdown
//
// When the Run context is cancelled the server stops accepting connections,
// waits up to server.shutdown_timeout for in-flight requests, stops the
// background jobs and closes the stores, the Redis client and the tracer in
// reverse construction order.
package server
