package auth

import (
	"labhive/internal/common/api"
	"labhive/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthApi struct {
	controller *AuthController
}

func NewAuthApi(controller *AuthController) *AuthApi {
	return &AuthApi{
		controller: controller,
	}
}

// Setup registers all auth-related routes
func (h *AuthApi) Setup(app *fiber.App) {
	router := app.Group(api.Prefix)

	// Public routes
	router.Post("/registration", h.controller.Register)
	router.Post("/login", h.controller.Login)
	router.Post("/activate", h.controller.Activate)
	router.Post("/forgot-password", h.controller.ForgotPassword)
	router.Post("/reset-password", h.controller.ResetPassword)

	router.Post("/change-password", middleware.AuthMiddleware(), h.controller.ChangePassword)
}
