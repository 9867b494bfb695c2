package capacity

import (
	"labhive/internal/common/api"
	"labhive/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CapacityApi struct {
	controller *CapacityController
}

func NewCapacityApi(controller *CapacityController) *CapacityApi {
	return &CapacityApi{controller: controller}
}

func (h *CapacityApi) Setup(app *fiber.App) {
	router := app.Group(api.Prefix+"/testCapacity", middleware.AuthMiddleware())
	router.Get("/", h.controller.Get)
	router.Get("/query", h.controller.Query)
	router.Post("/", h.controller.Update)
}
