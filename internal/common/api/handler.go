package api

import "github.com/gofiber/fiber/v2"

// Route is an interface for any module that wants to register endpoints
type Route interface {
	Setup(app *fiber.App)
}

// Prefix is the mount point of the versioned REST API.
const Prefix = "/api/v1"
