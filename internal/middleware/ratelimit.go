package middleware

import (
	"labhive/internal/config"
	"labhive/internal/metrics"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

// RateLimiter gives every client IP RateLimitPoints requests per
// RateLimitBlockDuration. Once the budget is spent the client is blocked
// until the window resets. With DisableRateLimiting the limit is still
// tracked but rejected requests proceed.
func RateLimiter(cfg *config.Config, storage fiber.Storage, m *metrics.Metrics, logger *zap.Logger) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               cfg.RateLimitPoints,
		Expiration:        cfg.RateLimitBlockDuration,
		LimiterMiddleware: limiter.FixedWindow{},
		Storage:           storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			if cfg.DisableRateLimiting {
				m.RateLimited.WithLabelValues("false").Inc()
				return c.Next()
			}
			m.RateLimited.WithLabelValues("true").Inc()
			logger.Warn("Rate limit exceeded", zap.String("ip", c.IP()), zap.String("path", c.Path()))
			return utils.ErrorResponse(c, fiber.StatusTooManyRequests, utils.ErrCodeTooMany)
		},
	})
}
