package search

import (
	"labhive/internal/features/user"
	"labhive/internal/middleware"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SearchController struct {
	Service SearchService
	logger  *zap.Logger
}

func NewSearchController(service SearchService, logger *zap.Logger) *SearchController {
	return &SearchController{
		Service: service,
		logger:  logger.Named("search"),
	}
}

// Search godoc
// @Summary      Search public volunteers and labs
// @Tags         search
// @Produce      json
// @Param        role          query string  false "volunteer, lab-diagnostic or lab-research"
// @Param        lat           query number  false "Latitude of the search center"
// @Param        lng           query number  false "Longitude of the search center"
// @Param        radius        query number  false "Radius in km"
// @Param        skills        query string  false "Comma separated skills"
// @Param        qualification query string  false "Qualification"
// @Param        available     query boolean false "Only available volunteers"
// @Param        page          query int     false "Page, starting at 1"
// @Param        limit         query int     false "Page size"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]string
// @Router       /search [get]
func (ctrl *SearchController) Search(c *fiber.Ctx) error {
	var q Query
	if err := c.QueryParser(&q); err != nil {
		return utils.BadRequest(c)
	}
	if err := utils.Validator().Struct(&q); err != nil {
		return utils.BadRequest(c)
	}
	q.HasLocation = c.Query("lat") != "" && c.Query("lng") != ""

	result, err := ctrl.Service.Search(c.UserContext(), &q)
	if err != nil {
		ctrl.logger.Error("Search failed", zap.Error(err))
		return utils.InternalError(c)
	}

	viewer := user.ViewerFromClaims(middleware.ClaimsFrom(c))
	users := make([]map[string]any, 0, len(result.Users))
	for i := range result.Users {
		users = append(users, user.Redact(viewer, &result.Users[i]))
	}
	return utils.Success(c, fiber.Map{
		"users": users,
		"total": result.Total,
		"page":  result.Page,
		"limit": result.Limit,
	})
}

// LabLocations godoc
// @Summary      Anonymized positions of public labs
// @Tags         search
// @Produce      json
// @Success      200  {object} map[string]interface{}
// @Router       /lab-locations [get]
func (ctrl *SearchController) LabLocations(c *fiber.Ctx) error {
	markers, err := ctrl.Service.LabLocations(c.UserContext())
	if err != nil {
		ctrl.logger.Error("Lab locations failed", zap.Error(err))
		return utils.InternalError(c)
	}
	return utils.Success(c, markers)
}

// TestCoverage godoc
// @Summary      Public users per role and diagnostic lab markers
// @Tags         search
// @Produce      json
// @Success      200  {object} map[string]interface{}
// @Router       /test-coverage [get]
func (ctrl *SearchController) TestCoverage(c *fiber.Ctx) error {
	coverage, err := ctrl.Service.TestCoverage(c.UserContext())
	if err != nil {
		ctrl.logger.Error("Test coverage failed", zap.Error(err))
		return utils.InternalError(c)
	}
	return utils.Success(c, coverage)
}
