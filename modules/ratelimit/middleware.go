package ratelimit

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// LocalsUserID is the fiber.Ctx local holding the authenticated user id.
const LocalsUserID = "user_id"

// Limiter is the check the middleware performs per request.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	Config() Config
}

// MiddlewareConfig configures the limits applied to API clients.
type MiddlewareConfig struct {
	// Auth applies to the unauthenticated auth endpoints, keyed by client IP.
	Auth Config
	// User applies to authenticated requests, keyed by user id.
	User      Config
	KeyPrefix string
}

// DefaultMiddlewareConfig allows perUser requests per window to authenticated
// users and a tenth of that, at least 5, to login and registration attempts.
func DefaultMiddlewareConfig(perUser int, window time.Duration) MiddlewareConfig {
	auth := perUser / 10
	if auth < 5 {
		auth = 5
	}
	return MiddlewareConfig{
		Auth:      Config{RequestsPerWindow: auth, WindowSize: window},
		User:      Config{RequestsPerWindow: perUser, WindowSize: window},
		KeyPrefix: "ratelimit:",
	}
}

// Middleware provides rate limiting handlers for Fiber.
type Middleware struct {
	auth Limiter
	user Limiter
}

// NewMiddleware creates Redis-backed limiters for cfg.
func NewMiddleware(client *redis.Client, cfg MiddlewareConfig) *Middleware {
	return NewMiddlewareWithLimiters(
		NewSlidingWindowLimiter(client, cfg.Auth, cfg.KeyPrefix+"auth:"),
		NewSlidingWindowLimiter(client, cfg.User, cfg.KeyPrefix+"user:"),
	)
}

// NewMiddlewareWithLimiters creates a Middleware over arbitrary limiters.
func NewMiddlewareWithLimiters(auth, user Limiter) *Middleware {
	return &Middleware{auth: auth, user: user}
}

// AuthRateLimit limits login, registration and refresh attempts by client IP.
func (m *Middleware) AuthRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "Unable to determine client IP address",
			})
		}
		return limit(c, m.auth, "ip:"+ip)
	}
}

// UserRateLimit limits requests by the user id set by the auth middleware,
// falling back to the client IP.
func (m *Middleware) UserRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, ok := c.Locals(LocalsUserID).(string); ok && userID != "" {
			return limit(c, m.user, userID)
		}
		return limit(c, m.user, "ip:"+c.IP())
	}
}

func limit(c *fiber.Ctx, l Limiter, key string) error {
	result, err := l.Allow(c.Context(), key)
	if err != nil {
		// fail open: an unreachable Redis must not take the API down
		log.Printf("[ratelimit] Warning: limiter error for %s: %v", key, err)
		return c.Next()
	}

	setRateLimitHeaders(c, result, l.Config().RequestsPerWindow)
	if !result.Allowed {
		return sendRateLimitExceeded(c, result)
	}
	return c.Next()
}

func setRateLimitHeaders(c *fiber.Ctx, result *Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func sendRateLimitExceeded(c *fiber.Ctx, result *Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set("Retry-After", strconv.Itoa(retryAfter))
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":       "rate_limited",
		"message":     fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
		"retry_after": retryAfter,
	})
}
