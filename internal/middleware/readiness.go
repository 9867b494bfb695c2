package middleware

import (
	"labhive/internal/database"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// ReadinessGate rejects requests with 503 until migrations have finished.
func ReadinessGate(readiness *database.Readiness) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !readiness.IsReady() {
			c.Set(fiber.HeaderRetryAfter, "5")
			return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, utils.ErrCodeNotReady)
		}
		return c.Next()
	}
}
