package limits

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"pathfinder-hq/waypoint/pkg/config"
	"pathfinder-hq/waypoint/pkg/limits/ratelimit"
	"pathfinder-hq/waypoint/pkg/proxy/types"
)

// Backend names reported by Limits.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Limits holds the named rate limiter instances of the service.
//
// The backend is chosen once in NewLimits and never changes for the life
// of the process. The instances use distinct key namespaces, so a chat
// request never consumes report capacity.
type Limits struct {
	// Chat limits conversational turns (default 15 per 60s).
	Chat ratelimit.Limiter

	// Report limits report generation (default 5 per 60s).
	Report ratelimit.Limiter

	backend string
	store   ratelimit.WindowStore
}

// NewLimits builds the Chat and Report limiters.
//
// When client is non-nil both limiters share a Redis sliding window store;
// otherwise each gets its own in-process MemoryLimiter and a warning is
// logged, because in-process limits are not shared between replicas.
// metrics may be nil.
func NewLimits(cfg *config.RateLimitsConfig, client redis.UniversalClient, logger *slog.Logger, metrics *Metrics) *Limits {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "limits")

	chatCfg := ratelimit.Config{
		Name:        string(types.EndpointChat),
		MaxRequests: cfg.Chat.MaxRequests,
		Window:      cfg.Chat.Window,
	}
	reportCfg := ratelimit.Config{
		Name:        string(types.EndpointReport),
		MaxRequests: cfg.Report.MaxRequests,
		Window:      cfg.Report.Window,
	}

	l := &Limits{}
	if client != nil {
		store := ratelimit.NewRedisStore(client)
		opts := ratelimit.RedisOptions{
			KeyPrefix:            cfg.KeyPrefix,
			Timeout:              cfg.RedisTimeout,
			FailClosedRetryAfter: cfg.FailClosedRetryAfter,
		}
		l.backend = BackendRedis
		l.store = store
		l.Chat = ratelimit.NewRedisLimiter(chatCfg, store, opts, logger)
		l.Report = ratelimit.NewRedisLimiter(reportCfg, store, opts, logger)
	} else {
		logger.Warn("redis not configured, using in-process rate limiting; limits are not shared across instances")
		l.backend = BackendMemory
		l.Chat = ratelimit.NewMemoryLimiter(chatCfg, ratelimit.WithMaxEntries(cfg.MaxEntries))
		l.Report = ratelimit.NewMemoryLimiter(reportCfg, ratelimit.WithMaxEntries(cfg.MaxEntries))
	}

	if metrics != nil {
		l.Chat = Instrument(l.Chat, metrics)
		l.Report = Instrument(l.Report, metrics)
	}

	logger.Info("rate limiters initialized",
		"backend", l.backend,
		"chat_max", chatCfg.MaxRequests,
		"chat_window", chatCfg.Window,
		"report_max", reportCfg.MaxRequests,
		"report_window", reportCfg.Window,
	)

	return l
}

// For returns the limiter of endpoint, or nil for an unknown endpoint.
func (l *Limits) For(endpoint types.Endpoint) ratelimit.Limiter {
	switch endpoint {
	case types.EndpointChat:
		return l.Chat
	case types.EndpointReport:
		return l.Report
	}
	return nil
}

// Backend returns BackendRedis or BackendMemory.
func (l *Limits) Backend() string {
	return l.backend
}

// Ping checks the shared store. It always succeeds for the in-process backend.
func (l *Limits) Ping(ctx context.Context) error {
	if l.store == nil {
		return nil
	}
	return l.store.Ping(ctx)
}

// NewRedisClient creates a client from cfg. It does not connect; the first
// command dials.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	return redis.NewClient(opts), nil
}

// instrumentedLimiter records metrics around another Limiter.
type instrumentedLimiter struct {
	ratelimit.Limiter
	metrics *Metrics
}

// sizer is implemented by limiters that track identifiers in memory.
type sizer interface {
	Size() int
}

// Instrument wraps limiter so every check is counted and timed.
func Instrument(limiter ratelimit.Limiter, metrics *Metrics) ratelimit.Limiter {
	return &instrumentedLimiter{Limiter: limiter, metrics: metrics}
}

// Check delegates to the wrapped limiter and records the outcome.
func (i *instrumentedLimiter) Check(ctx context.Context, identifier string) *ratelimit.CheckResult {
	start := time.Now()
	result := i.Limiter.Check(ctx, identifier)
	i.metrics.RecordRateLimitCheck(i.Name(), result.Allowed, result.Degraded, time.Since(start).Seconds())
	if s, ok := i.Limiter.(sizer); ok {
		i.metrics.UpdateMemoryEntries(i.Name(), s.Size())
	}
	return result
}
