package utils

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	return structValidator
}

// ParseAndValidate decodes the JSON body into out and runs its validate tags.
func ParseAndValidate(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return err
	}
	return structValidator.Struct(out)
}
