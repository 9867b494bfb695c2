package middleware

import (
	"strings"

	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware validates JWT tokens and injects user claims into context
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := bearerClaims(c)
		if !ok {
			return utils.Unauthorized(c)
		}

		c.Locals(utils.UserClaimsKey, claims)
		return c.Next()
	}
}

// OptionalAuth injects claims when a valid bearer token is present and lets
// anonymous requests through unchanged.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, ok := bearerClaims(c); ok {
			c.Locals(utils.UserClaimsKey, claims)
		}
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by AuthMiddleware or OptionalAuth, or nil.
func ClaimsFrom(c *fiber.Ctx) *utils.UserClaims {
	claims, _ := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	return claims
}

func bearerClaims(c *fiber.Ctx) (*utils.UserClaims, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || token == "" {
		return nil, false
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}
