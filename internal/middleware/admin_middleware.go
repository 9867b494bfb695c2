package middleware

import (
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminMiddleware checks if the user has admin role. It must run after AuthMiddleware.
func AdminMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !ClaimsFrom(c).IsAdmin() {
			return utils.Unauthorized(c)
		}
		return c.Next()
	}
}
