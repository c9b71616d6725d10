package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultStoreTimeout bounds a single store round trip.
	DefaultStoreTimeout = 2 * time.Second

	// DefaultFailClosedRetryAfter is the retry delay reported when the store
	// is unavailable.
	DefaultFailClosedRetryAfter = 60 * time.Second

	// DefaultKeyPrefix namespaces all limiter keys in Redis.
	DefaultKeyPrefix = "waypoint:ratelimit"
)

// WindowState is the store's view of one identifier's window after a hit.
type WindowState struct {
	// Allowed reports whether the hit was admitted.
	Allowed bool

	// Count is the number of admitted hits in the window, including this one
	// when admitted.
	Count int64

	// ResetIn is the time until the oldest hit leaves the window.
	ResetIn time.Duration
}

// WindowStore records hits in a shared sliding window.
type WindowStore interface {
	// Hit records a hit for key if fewer than limit hits fall within the
	// trailing window, and returns the resulting state.
	Hit(ctx context.Context, key string, limit int64, window time.Duration) (*WindowState, error)

	// Ping checks connectivity to the store.
	Ping(ctx context.Context) error
}

// slidingWindowScript atomically trims the log, counts, conditionally adds
// the hit, and computes the reset delay from the oldest remaining entry.
//
// KEYS[1] = key
// ARGV[1] = now (ms), ARGV[2] = window (ms), ARGV[3] = limit, ARGV[4] = member
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local reset = window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
  reset = tonumber(oldest[2]) + window - now
end
return {allowed, count, reset}
`)

// RedisStore implements WindowStore with a Redis sorted set per key.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisStore creates a store backed by client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Hit runs the sliding window script for key.
func (s *RedisStore) Hit(ctx context.Context, key string, limit int64, window time.Duration) (*WindowState, error) {
	now := s.now().UnixMilli()
	res, err := slidingWindowScript.Run(ctx, s.client, []string{key},
		now, window.Milliseconds(), limit, uuid.NewString()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected script result length %d", len(res))
	}
	return &WindowState{
		Allowed: res[0] == 1,
		Count:   res[1],
		ResetIn: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Ping checks connectivity to Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// RedisOptions tunes a RedisLimiter.
type RedisOptions struct {
	// KeyPrefix is prepended to every key. Empty means DefaultKeyPrefix.
	KeyPrefix string

	// Timeout bounds each store call. Zero means DefaultStoreTimeout.
	Timeout time.Duration

	// FailClosedRetryAfter is reported when the store is unavailable. Zero
	// means DefaultFailClosedRetryAfter.
	FailClosedRetryAfter time.Duration

	// Now is the time source for Reset. Nil means time.Now.
	Now func() time.Time
}

// RedisLimiter implements Limiter on top of a shared WindowStore.
type RedisLimiter struct {
	config Config
	store  WindowStore
	opts   RedisOptions
	logger *slog.Logger
}

// NewRedisLimiter creates a distributed limiter.
func NewRedisLimiter(config Config, store WindowStore, opts RedisOptions, logger *slog.Logger) *RedisLimiter {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultStoreTimeout
	}
	if opts.FailClosedRetryAfter <= 0 {
		opts.FailClosedRetryAfter = DefaultFailClosedRetryAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		config: config,
		store:  store,
		opts:   opts,
		logger: logger.With("component", "ratelimit", "limiter", config.Name),
	}
}

// Name returns the limiter's configured name.
func (l *RedisLimiter) Name() string {
	return l.config.Name
}

// Config returns the limiter's configuration.
func (l *RedisLimiter) Config() Config {
	return l.config
}

// Store returns the underlying window store.
func (l *RedisLimiter) Store() WindowStore {
	return l.store
}

// Key returns the store key for identifier.
func (l *RedisLimiter) Key(identifier string) string {
	return l.opts.KeyPrefix + ":" + l.config.Name + ":" + identifier
}

// Check records one request for identifier in the shared window. Any store
// failure denies the request.
func (l *RedisLimiter) Check(ctx context.Context, identifier string) *CheckResult {
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	state, err := l.store.Hit(ctx, l.Key(identifier), l.config.MaxRequests, l.config.Window)
	if err != nil {
		return l.failClosed(err)
	}

	resetIn := ceilSeconds(state.ResetIn)
	remaining := l.config.MaxRequests - state.Count
	if remaining < 0 {
		remaining = 0
	}
	result := &CheckResult{
		Allowed:   state.Allowed,
		Limit:     l.config.MaxRequests,
		Remaining: remaining,
		ResetIn:   resetIn,
		Reset:     l.opts.Now().Add(resetIn),
	}
	if !state.Allowed {
		result.Reason = "rate limit exceeded"
	}
	return result
}

func (l *RedisLimiter) failClosed(err error) *CheckResult {
	reason := "rate limit store unavailable"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "rate limit store timed out"
	}
	l.logger.Error("rate limit check failed, denying request",
		"error", err,
		"timeout", l.opts.Timeout,
	)
	return &CheckResult{
		Allowed:  false,
		Limit:    l.config.MaxRequests,
		ResetIn:  l.opts.FailClosedRetryAfter,
		Reset:    l.opts.Now().Add(l.opts.FailClosedRetryAfter),
		Reason:   reason,
		Degraded: true,
	}
}
