package auth

import (
	"errors"

	"labhive/internal/features/token"
	"labhive/internal/features/user"
	"labhive/internal/middleware"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthController struct {
	AuthService AuthService
	logger      *zap.Logger
}

func NewAuthController(authService AuthService, logger *zap.Logger) *AuthController {
	return &AuthController{
		AuthService: authService,
		logger:      logger.Named("auth"),
	}
}

type RegisterRequest struct {
	Role              string `json:"role" validate:"required,oneof=volunteer lab-diagnostic lab-research"`
	Email             string `json:"email" validate:"required,email,max=254"`
	Password          string `json:"password" validate:"required,min=8,max=72"`
	ConsentProcessing bool   `json:"consentProcessing" validate:"required"`

	Profile user.ProfileInput `json:"profile"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

func (ctrl *AuthController) internalError(c *fiber.Ctx, msg string, err error) error {
	ctrl.logger.Error(msg, zap.Error(err), zap.String("ip", c.IP()))
	return utils.InternalError(c)
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates a volunteer or lab account and sends an activation mail
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterRequest true "Registration"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]string
// @Router       /registration [post]
func (ctrl *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.BadRequest(c)
	}

	u, err := ctrl.AuthService.Register(c.UserContext(), &req, utils.LanguageOf(c))
	if errors.Is(err, user.ErrEmailTaken) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.ErrCodeEmailTaken)
	}
	if err != nil {
		return ctrl.internalError(c, "Registration failed", err)
	}
	return utils.Success(c, fiber.Map{"id": u.ID.Hex(), "slug": u.Slug})
}

// Login godoc
// @Summary      Login
// @Description  Login with email and password, returns a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginRequest true "Credentials"
// @Success      200  {object} LoginResult
// @Failure      401  {object} map[string]string
// @Router       /login [post]
func (ctrl *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.BadRequest(c)
	}

	result, err := ctrl.AuthService.Login(c.UserContext(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrAccountDisabled) {
		ctrl.logger.Info("Login rejected", zap.String("ip", c.IP()), zap.Error(err))
		return utils.Unauthorized(c)
	}
	if err != nil {
		return ctrl.internalError(c, "Login failed", err)
	}
	return utils.Success(c, result)
}

// Activate godoc
// @Summary      Confirm the mail address of a new account
// @Tags         auth
// @Param        token query string true "Activation token"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]string
// @Router       /activate [post]
func (ctrl *AuthController) Activate(c *fiber.Ctx) error {
	activationToken := c.Query("token")
	if activationToken == "" {
		return utils.BadRequest(c)
	}

	err := ctrl.AuthService.Activate(c.UserContext(), activationToken)
	if errors.Is(err, token.ErrTokenNotFound) || errors.Is(err, user.ErrNotFound) {
		return utils.BadRequest(c)
	}
	if err != nil {
		return ctrl.internalError(c, "Activation failed", err)
	}
	return utils.Success(c)
}

// ForgotPassword godoc
// @Summary      Request a password reset mail
// @Description  Always succeeds for a syntactically valid address
// @Tags         auth
// @Accept       json
// @Param        input body ForgotPasswordRequest true "Mail address"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]string
// @Router       /forgot-password [post]
func (ctrl *AuthController) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.BadRequest(c)
	}

	if err := ctrl.AuthService.ForgotPassword(c.UserContext(), req.Email, utils.LanguageOf(c)); err != nil {
		return ctrl.internalError(c, "Forgot password failed", err)
	}
	return utils.Success(c)
}

// ResetPassword godoc
// @Summary      Set a new password with a reset token
// @Tags         auth
// @Accept       json
// @Param        token query string true "Reset token"
// @Param        input body ResetPasswordRequest true "New password"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]string "bad_request or tokenTooOld"
// @Router       /reset-password [post]
func (ctrl *AuthController) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	resetToken := c.Query("token")
	if err := utils.ParseAndValidate(c, &req); err != nil || resetToken == "" {
		return utils.BadRequest(c)
	}

	err := ctrl.AuthService.ResetPassword(c.UserContext(), resetToken, req.NewPassword)
	switch {
	case err == nil:
		return utils.Success(c)
	case errors.Is(err, token.ErrTokenNotFound):
		return utils.BadRequest(c)
	case errors.Is(err, token.ErrTokenTooOld):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.ErrCodeTokenTooOld)
	default:
		return ctrl.internalError(c, "Password reset failed", err)
	}
}

// ChangePassword godoc
// @Summary      Change the password of the logged in account
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        input body ChangePasswordRequest true "Old and new password"
// @Success      200  {object} map[string]interface{}
// @Failure      400  {object} map[string]string
// @Failure      401  {object} map[string]string
// @Router       /change-password [post]
func (ctrl *AuthController) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := utils.ParseAndValidate(c, &req); err != nil {
		return utils.BadRequest(c)
	}

	err := ctrl.AuthService.ChangePassword(c.UserContext(), middleware.ClaimsFrom(c), req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		return utils.Success(c)
	case errors.Is(err, ErrWrongPassword):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, utils.ErrCodeWrongPassword)
	case errors.Is(err, ErrInvalidCredentials):
		return utils.Unauthorized(c)
	default:
		return ctrl.internalError(c, "Change password failed", err)
	}
}
