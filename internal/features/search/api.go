package search

import (
	"labhive/internal/common/api"
	"labhive/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SearchApi struct {
	controller *SearchController
}

func NewSearchApi(controller *SearchController) *SearchApi {
	return &SearchApi{
		controller: controller,
	}
}

func (h *SearchApi) Setup(app *fiber.App) {
	router := app.Group(api.Prefix)
	router.Get("/search", middleware.OptionalAuth(), h.controller.Search)
	router.Get("/lab-locations", h.controller.LabLocations)
	router.Get("/test-coverage", h.controller.TestCoverage)
}
