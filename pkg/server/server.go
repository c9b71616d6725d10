package server

import (
	"context"
	cryptotls "crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"pathfinder-hq/waypoint/pkg/admission"
	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/limits"
	"pathfinder-hq/waypoint/pkg/limits/usage"
	"pathfinder-hq/waypoint/pkg/processing/costs"
	"pathfinder-hq/waypoint/pkg/prompts"
	"pathfinder-hq/waypoint/pkg/providerfactory"
	"pathfinder-hq/waypoint/pkg/providers"
	"pathfinder-hq/waypoint/pkg/proxy/handlers"
	"pathfinder-hq/waypoint/pkg/proxy/middleware"
	securetls "pathfinder-hq/waypoint/pkg/security/tls"
	"pathfinder-hq/waypoint/pkg/telemetry/health"
	"pathfinder-hq/waypoint/pkg/telemetry/metrics"
	"pathfinder-hq/waypoint/pkg/telemetry/tracing"
)

// Options carry process-level inputs that do not come from configuration.
type Options struct {
	// Logger is the process logger. Nil means slog.Default().
	Logger *slog.Logger

	// Version, Commit and BuildTime are reported by /version and on spans.
	Version   string
	Commit    string
	BuildTime string

	// Completer replaces the configured LLM client. Used by tests.
	Completer providers.Completer
}

// Server is the Waypoint API server. It owns every component built from the
// configuration and releases them on Shutdown.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	tracer    *tracing.Tracer
	collector *metrics.Collector
	limits    *limits.Limits
	usage     usage.Store
	scheduler *usage.Scheduler
	library   *prompts.Library
	watcher   *prompts.Watcher
	completer *providerfactory.Instrumented
	health    *health.Checker
	reloader  *securetls.Reloader
	tlsConfig *cryptotls.Config
	closers   []namedCloser

	handler    http.Handler
	httpServer *http.Server

	mu           sync.Mutex
	running      bool
	shutdownOnce sync.Once
}

type namedCloser struct {
	name  string
	close func() error
}

// New builds the server and all of its components from cfg. cfg must have
// defaults applied and be valid. On error, everything built so far is
// released.
func New(cfg *config.Config, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolved, err := resolveSecrets(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    resolved,
		logger: logger.With("component", "server"),
		health: health.New(0),
	}
	if err := s.build(opts); err != nil {
		_ = s.closeAll()
		return nil, err
	}
	pipeline, err := s.pipeline()
	if err != nil {
		_ = s.closeAll()
		return nil, err
	}
	s.handler = s.routes(pipeline, opts)
	return s, nil
}

func (s *Server) build(opts Options) error {
	var err error
	if s.tracer, err = tracing.New(&s.cfg.Telemetry.Tracing, opts.Version); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.onClose("tracer", func() error { return s.tracer.Shutdown(context.Background()) })

	s.collector = metrics.NewCollector(nil)

	if s.reloader, s.tlsConfig, err = securetls.Setup(s.cfg.Server.TLS, s.logger); err != nil {
		return fmt.Errorf("failed to configure TLS: %w", err)
	}
	if err := s.buildLimits(); err != nil {
		return err
	}
	if err := s.buildUsage(); err != nil {
		return err
	}
	if err := s.buildPrompts(); err != nil {
		return err
	}
	return s.buildCompleter(opts.Completer)
}

func (s *Server) pipeline() (*admission.Pipeline, error) {
	identity, err := authResolver(s.cfg)
	if err != nil {
		return nil, err
	}
	session := s.cfg.Session
	estimator := estimatorFor(session)

	return admission.NewPipeline(admission.Dependencies{
		Identity:           identity,
		Usage:              usage.NewTracker(s.usage, quotas(s.cfg.Usage), s.logger),
		Limits:             s.limits,
		Fingerprinter:      fingerprinter(s.cfg),
		Validator:          validator(session),
		Prompts:            s.library,
		Budget:             budgetChecker(session, estimator),
		Trimmer:            trimmer(session, estimator),
		Completer:          s.completer,
		Costs:              costs.NewCalculator(s.cfg.LLM.Pricing),
		Tracer:             s.tracer,
		Metrics:            s.collector,
		Logger:             s.logger,
		OverloadRetryAfter: s.cfg.LLM.OverloadRetryAfter,
	})
}

// routes registers the API and operational endpoints and wraps them in the
// middleware chain.
func (s *Server) routes(pipeline *admission.Pipeline, opts Options) http.Handler {
	mux := http.NewServeMux()

	handlerOpts := handlers.Options{
		MaxBodyBytes: s.cfg.Server.MaxBodyBytes,
		Metrics:      s.collector,
		Logger:       s.logger,
	}
	mux.Handle("/api/chat", handlers.NewChatHandler(pipeline, handlerOpts))
	mux.Handle("/api/report", handlers.NewReportHandler(pipeline, handlerOpts))

	mux.Handle("/health", s.health.LivenessHandler())
	mux.Handle("/ready", s.health.ReadinessHandler())
	mux.Handle("/version", health.VersionHandler(health.NewVersionInfo(opts.Version, opts.Commit, opts.BuildTime)))
	if s.cfg.Telemetry.Metrics.IsEnabled() {
		mux.Handle(s.cfg.Telemetry.Metrics.Path, s.collector.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.TimeoutMiddleware(s.cfg.Server.RequestTimeout)(handler)
	handler = middleware.CORSMiddleware(middleware.NewCORSConfig(s.cfg.Server.AllowedOrigins))(handler)
	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = s.tracer.Middleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)
	return handler
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts background jobs and serves on the configured address until ctx
// is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Server.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.running = true
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		IdleTimeout:    s.cfg.Server.IdleTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.mu.Unlock()

	if s.tlsConfig != nil {
		ln = cryptotls.NewListener(ln, s.tlsConfig)
	}

	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()
	s.startBackground(bgCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening",
			"address", ln.Addr().String(),
			"tls", s.tlsConfig != nil,
			"rate_limit_backend", s.limits.Backend(),
			"usage_backend", s.cfg.Usage.Backend,
			"model", s.cfg.LLM.Model,
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// startBackground launches the retention scheduler, the prompt watcher and
// the certificate reloader. None is fatal: the API keeps serving without them.
func (s *Server) startBackground(ctx context.Context) {
	if s.scheduler != nil {
		if err := s.scheduler.Start(ctx); err != nil {
			s.logger.Warn("failed to start usage retention scheduler", "error", err)
		} else if next := s.scheduler.NextRun(); next != nil {
			s.logger.Debug("usage retention scheduler started", "next_run", next)
		}
	}
	if s.reloader != nil {
		go s.reloader.Run(ctx)
	}
	if s.watcher != nil {
		go func() {
			if err := s.watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("prompt watcher stopped", "error", err)
			}
		}()
	}
}

// Shutdown stops accepting requests, waits for in-flight ones up to ctx's
// deadline and releases every component. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		srv := s.httpServer
		s.mu.Unlock()

		if srv != nil {
			s.logger.Info("initiating graceful shutdown", "timeout", s.cfg.Server.ShutdownTimeout.String())
			if err := srv.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("http shutdown: %w", err))
			}
		}
		if s.scheduler != nil {
			s.scheduler.Stop()
		}
		if err := s.closeAll(); err != nil {
			errs = append(errs, err)
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.logger.Info("server stopped")
	})
	return errors.Join(errs...)
}

func (s *Server) onClose(name string, fn func() error) {
	s.closers = append(s.closers, namedCloser{name: name, close: fn})
}

// closeAll releases components in reverse construction order.
func (s *Server) closeAll() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
