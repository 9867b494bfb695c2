package utils

import (
	"github.com/gofiber/fiber/v2"
)

// Error codes returned in the {"error": ...} envelope.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "not_authorized"
	ErrCodeNotFound      = "not_found"
	ErrCodeInvalidRoute  = "invalid_route"
	ErrCodeInternal      = "internal_error"
	ErrCodeNotReady      = "not_ready"
	ErrCodeTooMany       = "Too many requests"
	ErrCodeTokenTooOld   = "tokenTooOld"
	ErrCodeEmailTaken    = "emailTaken"
	ErrCodeWrongPassword = "wrongPassword"
)

func ErrorResponse(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": code,
	})
}

func BadRequest(c *fiber.Ctx) error {
	return ErrorResponse(c, fiber.StatusBadRequest, ErrCodeBadRequest)
}

func Unauthorized(c *fiber.Ctx) error {
	return ErrorResponse(c, fiber.StatusUnauthorized, ErrCodeUnauthorized)
}

func NotFound(c *fiber.Ctx) error {
	return ErrorResponse(c, fiber.StatusNotFound, ErrCodeNotFound)
}

func InternalError(c *fiber.Ctx) error {
	return ErrorResponse(c, fiber.StatusInternalServerError, ErrCodeInternal)
}

// Success writes {"success": true} and, when given, {"data": data}.
func Success(c *fiber.Ctx, data ...interface{}) error {
	body := fiber.Map{"success": true}
	if len(data) > 0 {
		body["data"] = data[0]
	}
	return c.JSON(body)
}
