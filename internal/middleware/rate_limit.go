package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/pageza/recipebox/backend/internal/logging"
	"github.com/pageza/recipebox/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimiter limits requests per client IP. Counters live in Redis when a
// client is configured so every API instance shares them; otherwise, or
// while Redis is failing, an in-process token bucket per IP is used.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	local  *localLimiter
}

// NewRateLimiter creates a new rate limiter instance. redisClient may be nil.
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit:search"
	}
	return &RateLimiter{
		redis:  redisClient,
		config: config,
		local:  newLocalLimiter(config.Limit, config.Window),
	}
}

// RateLimitMiddleware returns a Gin middleware that enforces rate limiting
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.Limit <= 0 {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), clientIP)
		if err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("shared rate limit check failed, using local limiter")
			allowed = rl.local.allow(clientIP)
			remaining, resetTime = -1, time.Time{}
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		if remaining >= 0 {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		}
		if !resetTime.IsZero() {
			c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))
		}

		if !allowed {
			metrics.RateLimited.Inc()
			retryAfter := int(rl.config.Window.Seconds())
			if !resetTime.IsZero() {
				retryAfter = int(time.Until(resetTime).Seconds()) + 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("rate limit of %d requests per %v exceeded", rl.config.Limit, rl.config.Window),
			})
			return
		}

		c.Next()
	}
}

// IsAllowed counts a request from key against the current fixed window.
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, key string) (bool, int, time.Time, error) {
	if rl.redis == nil {
		return rl.local.allow(key), -1, time.Time{}, nil
	}

	now := time.Now()
	windowStart := now.Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	// Use Redis pipeline for atomic operations
	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetTime := windowStart.Add(rl.config.Window)
	return count <= rl.config.Limit, remaining, resetTime, nil
}

// localLimiter keeps one token bucket per key, refilled at limit per window
// with a burst of limit.
type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	idle     time.Duration
	lastGC   time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	r := rate.Inf
	if limit > 0 && window > 0 {
		r = rate.Every(window / time.Duration(limit))
	}
	idle := 2 * window
	if idle < time.Minute {
		idle = time.Minute
	}
	return &localLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    limit,
		idle:     idle,
		lastGC:   time.Now(),
	}
}

func (l *localLimiter) allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	if now.Sub(l.lastGC) > l.idle {
		for k, e := range l.limiters {
			if now.Sub(e.lastAccess) > l.idle {
				delete(l.limiters, k)
			}
		}
		l.lastGC = now
	}
	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	l.mu.Unlock()

	return limiter.Allow()
}
