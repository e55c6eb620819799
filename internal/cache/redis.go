package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/pageza/recipebox/backend/internal/logging"
	"github.com/pageza/recipebox/backend/internal/metrics"
	"github.com/pageza/recipebox/backend/internal/search"
)

// BreakerConfig controls when the Redis circuit opens.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// DefaultBreakerConfig opens after five consecutive failures for 30 seconds.
var DefaultBreakerConfig = BreakerConfig{ConsecutiveFailures: 5, Timeout: 30 * time.Second}

// RedisCache is a PageCache backed by Redis. Every Redis call goes through a
// circuit breaker so an unreachable server is skipped instead of adding a
// timeout to each search.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker[[]byte]
}

// NewRedisCache creates a cache storing pages for ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration, bc BreakerConfig) *RedisCache {
	metrics.CacheBreakerState.Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "page-cache",
		MaxRequests: 1,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("page cache breaker state change")
			metrics.CacheBreakerState.Set(stateValue(to))
		},
	})

	return &RedisCache{client: client, ttl: ttl, cb: cb}
}

// Get loads the page stored under key.
func (c *RedisCache) Get(ctx context.Context, key string) (*search.Page, bool, error) {
	raw, err := c.cb.Execute(func() ([]byte, error) {
		return c.client.Get(ctx, key).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheErrors.Inc()
		return nil, false, fmt.Errorf("page cache get: %w", err)
	}

	page, err := decodePage(raw)
	if err != nil {
		metrics.CacheErrors.Inc()
		return nil, false, fmt.Errorf("page cache decode: %w", err)
	}
	metrics.CacheHits.Inc()
	return page, true, nil
}

// Set stores page under key for the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, page *search.Page) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("page cache encode: %w", err)
	}

	_, err = c.cb.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, key, raw, c.ttl).Err()
	})
	if err != nil {
		metrics.CacheErrors.Inc()
		return fmt.Errorf("page cache set: %w", err)
	}
	return nil
}

// State returns the current breaker state.
func (c *RedisCache) State() gobreaker.State {
	return c.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
