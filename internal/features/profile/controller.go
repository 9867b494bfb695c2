package profile

import (
	"errors"

	"labhive/internal/features/user"
	"labhive/internal/middleware"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ProfileController struct {
	ProfileService ProfileService
	logger         *zap.Logger
}

func NewProfileController(profileService ProfileService, logger *zap.Logger) *ProfileController {
	return &ProfileController{
		ProfileService: profileService,
		logger:         logger.Named("profile"),
	}
}

type AvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// fail maps service errors onto the error envelope.
func (ctrl *ProfileController) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return utils.NotFound(c)
	case errors.Is(err, ErrNotAUser), errors.Is(err, ErrNotVolunteer):
		return utils.BadRequest(c)
	case errors.Is(err, ErrForbidden):
		return utils.Unauthorized(c)
	default:
		ctrl.logger.Error("Profile request failed", zap.Error(err), zap.String("path", c.Path()))
		return utils.InternalError(c)
	}
}

// Get godoc
// @Summary      Get the own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} map[string]interface{}
// @Router       /profile [get]
func (ctrl *ProfileController) Get(c *fiber.Ctx) error {
	account, err := ctrl.ProfileService.Own(c.UserContext(), middleware.ClaimsFrom(c))
	if err != nil {
		return ctrl.fail(c, err)
	}
	return utils.Success(c, user.RedactForOwner(account))
}

// Update godoc
// @Summary      Update the own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body user.ProfileInput true "Profile"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]string
// @Router       /profile [post]
func (ctrl *ProfileController) Update(c *fiber.Ctx) error {
	var in user.ProfileInput
	if err := utils.ParseAndValidate(c, &in); err != nil {
		return utils.BadRequest(c)
	}

	u, err := ctrl.ProfileService.Update(c.UserContext(), middleware.ClaimsFrom(c), &in)
	if err != nil {
		return ctrl.fail(c, err)
	}
	return utils.Success(c, user.RedactForOwner(u))
}

// Delete godoc
// @Summary      Delete the own account
// @Tags         profile
// @Security     BearerAuth
// @Success      200  {object} map[string]interface{}
// @Router       /profile [delete]
func (ctrl *ProfileController) Delete(c *fiber.Ctx) error {
	if err := ctrl.ProfileService.Delete(c.UserContext(), middleware.ClaimsFrom(c)); err != nil {
		return ctrl.fail(c, err)
	}
	return utils.Success(c)
}

// Revoke godoc
// @Summary      Withdraw the consent to appear in public search
// @Tags         profile
// @Security     BearerAuth
// @Success      200  {object} map[string]interface{}
// @Router       /profile/revoke [post]
func (ctrl *ProfileController) Revoke(c *fiber.Ctx) error {
	if err := ctrl.ProfileService.Revoke(c.UserContext(), middleware.ClaimsFrom(c)); err != nil {
		return ctrl.fail(c, err)
	}
	return utils.Success(c)
}

// GetPublic godoc
// @Summary      Get a profile by slug or id
// @Tags         profile
// @Produce      json
// @Param        id path string true "Slug or id"
// @Success      200  {object} map[string]interface{}
// @Failure      404  {object} map[string]string
// @Router       /profile/{id} [get]
func (ctrl *ProfileController) GetPublic(c *fiber.Ctx) error {
	viewer := user.ViewerFromClaims(middleware.ClaimsFrom(c))
	u, err := ctrl.ProfileService.Public(c.UserContext(), viewer, c.Params("id"))
	if err != nil {
		return ctrl.fail(c, err)
	}
	return utils.Success(c, user.Redact(viewer, u))
}

// NotAvailableNotice godoc
// @Summary      Report that a volunteer could not be reached
// @Tags         profile
// @Security     BearerAuth
// @Param        id path string true "Slug or id of the volunteer"
// @Success      200  {object} map[string]interface{}
// @Router       /profile/{id}/notAvailableNotice [post]
func (ctrl *ProfileController) NotAvailableNotice(c *fiber.Ctx) error {
	err := ctrl.ProfileService.NotAvailableNotice(c.UserContext(), middleware.ClaimsFrom(c), c.Params("id"), utils.LanguageOf(c))
	if err != nil {
		return ctrl.fail(c, err)
	}
	return utils.Success(c)
}

// UpdateAvailability godoc
// @Summary      Update the availability with a link from a notice mail
// @Tags         profile
// @Accept       json
// @Param        id    path  string true "Slug or id of the volunteer"
// @Param        token query string true "Availability token"
// @Param        input body  AvailabilityRequest true "Availability"
// @Success      200  {object} map[string]interface{}
// @Failure      401  {object} map[string]string
// @Router       /profile/{id}/updateAvailability [post]
func (ctrl *ProfileController) UpdateAvailability(c *fiber.Ctx) error {
	var req AvailabilityRequest
	availabilityToken := c.Query("token")
	if err := utils.ParseAndValidate(c, &req); err != nil || availabilityToken == "" {
		return utils.BadRequest(c)
	}

	err := ctrl.ProfileService.UpdateAvailability(c.UserContext(), c.Params("id"), availabilityToken, *req.Available)
	if errors.Is(err, user.ErrNotFound) || errors.Is(err, ErrNotVolunteer) {
		return ctrl.fail(c, err)
	}
	if err != nil {
		ctrl.logger.Info("Rejected availability token", zap.Error(err), zap.String("ip", c.IP()))
		return utils.Unauthorized(c)
	}
	return utils.Success(c)
}
