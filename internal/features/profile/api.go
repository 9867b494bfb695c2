package profile

import (
	"labhive/internal/common/api"
	"labhive/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ProfileApi struct {
	controller *ProfileController
}

func NewProfileApi(controller *ProfileController) *ProfileApi {
	return &ProfileApi{controller: controller}
}

func (h *ProfileApi) Setup(app *fiber.App) {
	profile := app.Group(api.Prefix + "/profile")

	profile.Get("/", middleware.AuthMiddleware(), h.controller.Get)
	profile.Post("/", middleware.AuthMiddleware(), h.controller.Update)
	profile.Delete("/", middleware.AuthMiddleware(), h.controller.Delete)
	profile.Post("/revoke", middleware.AuthMiddleware(), h.controller.Revoke)

	profile.Get("/:id", middleware.OptionalAuth(), h.controller.GetPublic)
	profile.Post("/:id/notAvailableNotice", middleware.AuthMiddleware(), h.controller.NotAvailableNotice)
	profile.Post("/:id/updateAvailability", h.controller.UpdateAvailability)
}
