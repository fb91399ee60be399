package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter manages in-memory per-key rate limiting, used on the
// unauthenticated exchange path where no user id exists yet.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new in-memory rate limiter
func NewRateLimiter(rps int, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// getLimiter returns a rate limiter for a specific key
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	limiter, exists = rl.limiters[key]
	if exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[key] = limiter

	return limiter
}

// RateLimit middleware limits requests per client IP
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getLimiter(c.ClientIP())
		if !limiter.Allow() {
			abortRateLimited(c, "Too many requests. Please slow down.")
			return
		}

		c.Next()
	}
}

// WindowLimiter is a Redis-backed fixed-window request counter. Being
// external, the window survives restarts and is shared across service
// instances. This throttling is transport-level and independent of the
// daily optimization quota.
type WindowLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

// NewWindowLimiter creates a fixed-window limiter over Redis
func NewWindowLimiter(client *redis.Client, prefix string, max int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{client: client, prefix: prefix, max: max, window: window}
}

// Allow counts a request against the window for key and reports
// whether it is within bounds.
func (wl *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", wl.prefix, key)

	count, err := wl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := wl.client.Expire(ctx, redisKey, wl.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	return count <= int64(wl.max), nil
}

// WindowLimit middleware enforces a fixed-window limit keyed by user
// id when authenticated, falling back to client IP.
func WindowLimit(wl *WindowLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			key = userID
		}

		allowed, err := wl.Allow(c.Request.Context(), key)
		if err != nil {
			// Redis being down must not take the API with it.
			c.Next()
			return
		}

		if !allowed {
			abortRateLimited(c, fmt.Sprintf("Too many requests. Limit is %d per %s.", wl.max, wl.window))
			return
		}

		c.Next()
	}
}

func abortRateLimited(c *gin.Context, message string) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error": gin.H{"code": "RATE_LIMITED", "message": message},
	})
	c.Abort()
}
