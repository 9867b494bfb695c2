package admin

import (
	"labhive/internal/common/api"
	"labhive/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AdminApi struct {
	Controller *AdminController
}

func NewAdminApi(controller *AdminController) *AdminApi {
	return &AdminApi{Controller: controller}
}

// Setup registers the admin sub-router. Every route requires an admin token.
func (h *AdminApi) Setup(app *fiber.App) {
	router := app.Group(api.Prefix+"/admin", middleware.AuthMiddleware(), middleware.AdminMiddleware())

	router.Get("/users", h.Controller.ListUsers)
	router.Get("/users/export", h.Controller.ExportUsers)
	router.Post("/users/:id/verify", h.Controller.Verify())
	router.Post("/users/:id/disable", h.Controller.Disable())
	router.Post("/users/:id/enable", h.Controller.Enable())
	router.Delete("/users/:id", h.Controller.Delete())
	router.Get("/failed-mails", h.Controller.FailedMails)
}
