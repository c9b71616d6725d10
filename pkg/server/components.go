package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/limits"
	"pathfinder-hq/waypoint/pkg/limits/budget"
	"pathfinder-hq/waypoint/pkg/limits/usage"
	"pathfinder-hq/waypoint/pkg/processing/conversation"
	"pathfinder-hq/waypoint/pkg/processing/tokens"
	"pathfinder-hq/waypoint/pkg/prompts"
	"pathfinder-hq/waypoint/pkg/providerfactory"
	"pathfinder-hq/waypoint/pkg/providers"
	"pathfinder-hq/waypoint/pkg/proxy"
	"pathfinder-hq/waypoint/pkg/proxy/types"
	"pathfinder-hq/waypoint/pkg/security/auth"
	"pathfinder-hq/waypoint/pkg/security/fingerprint"
	"pathfinder-hq/waypoint/pkg/security/secrets"
)

// Readiness check names.
const (
	CheckRedis      = "redis"
	CheckUsageStore = "usage_store"
	CheckProvider   = "provider"
)

// resolveSecrets returns a copy of cfg with every ${secret:name} reference
// in the sensitive fields replaced. cfg itself is left untouched. Files under
// secrets.dir take precedence over environment variables.
func resolveSecrets(cfg *config.Config, logger *slog.Logger) (*config.Config, error) {
	out := *cfg
	fields := map[string]*string{
		"llm.api_key":     &out.LLM.APIKey,
		"auth.jwt_secret": &out.Auth.JWTSecret,
		"redis.url":       &out.Redis.URL,
	}

	pending := false
	for _, v := range fields {
		if secrets.HasReference(*v) {
			pending = true
			break
		}
	}
	if !pending {
		return &out, nil
	}

	var sources []secrets.Provider
	if cfg.Secrets.Dir != "" {
		fp, err := secrets.NewFileProvider(cfg.Secrets.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open secrets directory: %w", err)
		}
		sources = append(sources, fp)
	}
	sources = append(sources, secrets.NewEnvProvider(cfg.Secrets.EnvPrefix))

	manager := secrets.NewManager(sources, secrets.NewCache(cfg.Secrets.CacheTTL), logger)
	if err := manager.ResolveAll(context.Background(), fields); err != nil {
		return nil, fmt.Errorf("failed to resolve secrets: %w", err)
	}
	return &out, nil
}

// buildLimits selects the rate limiter backend: Redis when a URL is
// configured, the in-process limiter otherwise.
func (s *Server) buildLimits() error {
	limiterMetrics := limits.NewMetrics(s.collector.Registry())

	if s.cfg.Redis.URL == "" {
		s.limits = limits.NewLimits(&s.cfg.RateLimits, nil, s.logger, limiterMetrics)
		return nil
	}

	client, err := limits.NewRedisClient(s.cfg.Redis)
	if err != nil {
		return err
	}
	s.onClose("redis", client.Close)
	s.limits = limits.NewLimits(&s.cfg.RateLimits, client, s.logger, limiterMetrics)
	s.health.Register(CheckRedis, s.limits.Ping)
	return nil
}

// buildUsage opens the usage store and prepares the retention scheduler.
func (s *Server) buildUsage() error {
	switch s.cfg.Usage.Backend {
	case "sqlite":
		store, err := usage.NewSQLiteStore(s.cfg.Usage.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open usage store: %w", err)
		}
		s.usage = store
		s.health.Register(CheckUsageStore, store.Ping)
	case "memory", "":
		s.usage = usage.NewMemoryStore()
	default:
		return fmt.Errorf("unsupported usage backend: %s", s.cfg.Usage.Backend)
	}
	s.onClose("usage store", s.usage.Close)

	pruner := usage.NewPruner(s.usage, s.cfg.Usage.RetentionDays)
	s.scheduler = usage.NewScheduler(pruner, s.cfg.Usage.PruneSchedule, s.logger)
	return nil
}

// buildPrompts loads the system prompts and, when configured, watches their
// files for changes.
func (s *Server) buildPrompts() error {
	library, err := prompts.NewLibrary(s.cfg.Prompts, s.logger)
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	s.library = library

	if !s.cfg.Prompts.Watch {
		return nil
	}
	if len(library.Files()) == 0 {
		s.logger.Warn("prompts.watch is set but no prompt files are configured")
		return nil
	}
	watcher, err := prompts.NewWatcher(library, 0, s.logger)
	if err != nil {
		return fmt.Errorf("failed to watch prompts: %w", err)
	}
	s.watcher = watcher
	s.onClose("prompt watcher", watcher.Stop)
	return nil
}

// buildCompleter creates the LLM client, unless override is set, and wraps it
// with tracing, metrics and health tracking.
func (s *Server) buildCompleter(override providers.Completer) error {
	next := override
	if next == nil {
		c, err := providerfactory.NewCompleter(s.cfg.LLM, s.logger)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		next = c
		if closer, ok := c.(interface{ Close() error }); ok {
			s.onClose("llm client", closer.Close)
		}
	}

	s.completer = providerfactory.Instrument(next, s.cfg.LLM.Model, s.tracer, s.collector, s.logger)
	s.health.Register(CheckProvider, func(context.Context) error {
		if h := s.completer.Health(); !h.Healthy {
			return errors.New("provider unhealthy: " + h.LastError)
		}
		return nil
	})
	return nil
}

func authResolver(cfg *config.Config) (auth.Resolver, error) {
	resolver, err := auth.NewResolver(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity resolver: %w", err)
	}
	return resolver, nil
}

func quotas(cfg config.UsageConfig) usage.Quotas {
	return usage.Quotas{
		types.EndpointChat:   cfg.ChatDailyQuota,
		types.EndpointReport: cfg.ReportDailyQuota,
	}
}

func fingerprinter(cfg *config.Config) *fingerprint.Fingerprinter {
	return fingerprint.New(cfg.Fingerprint.PlatformHeader)
}

func validator(session config.SessionConfig) *proxy.Validator {
	return proxy.NewValidator(session, prompts.ValidPhase)
}

func estimatorFor(session config.SessionConfig) *tokens.Estimator {
	return tokens.NewEstimator(session.CharsPerToken)
}

func budgetChecker(session config.SessionConfig, estimator *tokens.Estimator) *budget.Checker {
	return budget.NewChecker(session.MaxContextTokens, budget.WithEstimator(estimator))
}

func trimmer(session config.SessionConfig, estimator *tokens.Estimator) *conversation.Trimmer {
	return conversation.NewTrimmer(estimator, session.TrimTokens)
}
