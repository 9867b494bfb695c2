package system

import (
	"labhive/internal/common/api"
	"labhive/internal/config"

	"github.com/gofiber/fiber/v2"
)

type DebugApi struct {
	controller *DebugController
	config     *config.Config
}

func NewDebugApi(controller *DebugController, cfg *config.Config) *DebugApi {
	return &DebugApi{
		controller: controller,
		config:     cfg,
	}
}

// Setup registers the debug routes. They only exist on staging.
func (h *DebugApi) Setup(app *fiber.App) {
	if !h.config.Staging {
		return
	}
	app.Get("/robots.txt", h.controller.Robots)
	app.Get(api.Prefix+"/debug", h.controller.Debug)
}
