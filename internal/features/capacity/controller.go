package capacity

import (
	"errors"

	"labhive/internal/features/user"
	"labhive/internal/middleware"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CapacityController struct {
	Service CapacityService
	logger  *zap.Logger
}

func NewCapacityController(service CapacityService, logger *zap.Logger) *CapacityController {
	return &CapacityController{Service: service, logger: logger.Named("capacity")}
}

func (ctrl *CapacityController) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotDiagnosticLab):
		return utils.BadRequest(c)
	case errors.Is(err, user.ErrNotFound):
		return utils.NotFound(c)
	default:
		ctrl.logger.Error("Test capacity request failed", zap.Error(err), zap.String("ip", c.IP()))
		return utils.InternalError(c)
	}
}

// Get godoc
// @Summary      Own test capacity of a diagnostic lab
// @Tags         capacity
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} models.TestCapacity
// @Failure      400  {object} map[string]string
// @Router       /testCapacity [get]
func (ctrl *CapacityController) Get(c *fiber.Ctx) error {
	tc, err := ctrl.Service.Get(c.UserContext(), middleware.ClaimsFrom(c))
	if err != nil {
		return ctrl.fail(c, err)
	}
	return utils.Success(c, tc)
}

// Update godoc
// @Summary      Report the test capacity of a diagnostic lab
// @Tags         capacity
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body UpdateRequest true "Capacity"
// @Success      200  {object} models.TestCapacity
// @Failure      400  {object} map[string]string
// @Router       /testCapacity [post]
func (ctrl *CapacityController) Update(c *fiber.Ctx) error {
	var req UpdateRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.BadRequest(c)
	}
	if *req.Used > *req.Capacity {
		return utils.BadRequest(c)
	}

	tc, err := ctrl.Service.Update(c.UserContext(), middleware.ClaimsFrom(c), &req)
	if err != nil {
		return ctrl.fail(c, err)
	}
	return utils.Success(c, tc)
}

// Query godoc
// @Summary      Aggregated test capacity of public diagnostic labs
// @Tags         capacity
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} Summary
// @Router       /testCapacity/query [get]
func (ctrl *CapacityController) Query(c *fiber.Ctx) error {
	summary, err := ctrl.Service.Query(c.UserContext())
	if err != nil {
		return ctrl.fail(c, err)
	}
	return utils.Success(c, summary)
}
