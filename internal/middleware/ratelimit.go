package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"inkpress/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// FailPolicy defines the behavior when the rate limit store (Redis) returns an error.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

const (
	localLimiterCapacity = 10000
	localLimiterIdleTTL  = 15 * time.Minute
)

var (
	localMu       sync.Mutex
	localLimiters = expirable.NewLRU[string, *rate.Limiter](localLimiterCapacity, nil, localLimiterIdleTTL)
)

// RateLimitingEnabled reports whether limits apply in the current APP_ENV.
// Test, development and stress environments are not throttled.
func RateLimitingEnabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development", "stress":
		return false
	}
	return true
}

// CheckRateLimit checks whether id may perform another request against resource.
// It counts in Redis (fixed window) when rdb is set and in a process-local token bucket otherwise.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if !RateLimitingEnabled() {
		return true, nil
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	if rdb == nil {
		return allowLocal(key, limit, window), nil
	}

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

func allowLocal(key string, limit int, window time.Duration) bool {
	localMu.Lock()
	defer localMu.Unlock()

	limiter, ok := localLimiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)
	}
	// Re-adding refreshes the idle expiry.
	localLimiters.Add(key, limiter)
	return limiter.Allow()
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`.
// It keys by authenticated userID (if set in c.Locals("userID")) otherwise by remote IP.
// It defaults to FailOpen policy.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := UserID(c); ok {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "Rate limit store unavailable, rejecting request",
					slog.String("resource", resource), slog.String("error", err.Error()))
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Detail: "Rate limiting unavailable",
					Code:   "RATE_LIMIT_UNAVAILABLE",
				})
			}
			return c.Next()
		}

		if !allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Detail: "Too many requests",
				Code:   "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
