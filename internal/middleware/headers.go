package middleware

import (
	"github.com/gofiber/fiber/v2"
)

func SecurityHeaders(staging bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderXFrameOptions, "deny")
		if staging {
			c.Set("X-Robots-Tag", "noindex")
		}
		return c.Next()
	}
}
