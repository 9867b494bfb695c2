package system

import (
	"labhive/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

type SwaggerApi struct {
	config *config.Config
}

func NewSwaggerApi(cfg *config.Config) *SwaggerApi {
	return &SwaggerApi{config: cfg}
}

// Setup serves the API docs outside of production.
func (h *SwaggerApi) Setup(app *fiber.App) {
	if h.config.Production {
		return
	}
	app.Get("/swagger/*", swagger.HandlerDefault)
}
