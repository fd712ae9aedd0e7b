package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/Linxify/internal/infra/prometheus"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 30,
		Window:      time.Minute,
		KeyPrefix:   "linxify:ratelimit",
	}
}

// RateLimit creates a fixed-window rate limiting middleware using Redis.
// Each route keeps its own counter; authenticated requests are counted per
// user, others per client IP.
func RateLimit(redisClient redis.Cmdable, config RateLimitConfig, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := rateLimitKey(c, config.KeyPrefix)

		var incr *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := redisClient.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.PTTL(ctx, key)
			return nil
		})
		if err != nil {
			// Fail open while Redis is unavailable.
			RequestLogger(c, logger).Error("rate limit redis error", zap.Error(err))
			return c.Next()
		}

		count := incr.Val()
		resetIn := ttl.Val()
		if resetIn <= 0 {
			if err := redisClient.PExpire(ctx, key, config.Window).Err(); err != nil {
				RequestLogger(c, logger).Warn("rate limit expire failed", zap.Error(err))
			}
			resetIn = config.Window
		}

		remaining := config.MaxRequests - int(count)
		c.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, remaining)))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(resetIn).Unix(), 10))

		if count > int64(config.MaxRequests) {
			prometheus.RateLimited.Inc()
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(resetIn.Seconds()+0.5)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded",
			})
		}

		return c.Next()
	}
}

func rateLimitKey(c *fiber.Ctx, prefix string) string {
	scope := prefix + ":" + c.Method() + ":" + c.Route().Path
	if userID, ok := UserID(c); ok {
		return scope + ":user:" + strconv.FormatUint(uint64(userID), 10)
	}
	return scope + ":ip:" + c.IP()
}
