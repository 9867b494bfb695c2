package admin

import (
	"errors"
	"fmt"
	"time"

	"labhive/internal/features/user"
	"labhive/internal/middleware"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminController serves the user management endpoints under /admin.
type AdminController struct {
	Service AdminService
	logger  *zap.Logger
}

func NewAdminController(service AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{Service: service, logger: logger.Named("admin")}
}

func (ctrl *AdminController) parseQuery(c *fiber.Ctx) (*ListQuery, error) {
	var q ListQuery
	if err := c.QueryParser(&q); err != nil {
		return nil, err
	}
	if err := utils.Validator().Struct(&q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (ctrl *AdminController) fail(c *fiber.Ctx, err error) error {
	if errors.Is(err, user.ErrNotFound) {
		return utils.NotFound(c)
	}
	ctrl.logger.Error("Admin request failed", zap.Error(err), zap.String("path", c.Path()))
	return utils.InternalError(c)
}

// ListUsers godoc
// @Summary      List all users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role    query string false "Role filter"
// @Param        pending query bool   false "Only users waiting for manual verification"
// @Param        page    query int    false "Page, starting at 1"
// @Param        limit   query int    false "Page size"
// @Success      200  {object} map[string]interface{}
// @Router       /admin/users [get]
func (ctrl *AdminController) ListUsers(c *fiber.Ctx) error {
	q, err := ctrl.parseQuery(c)
	if err != nil {
		return utils.BadRequest(c)
	}
	users, total, err := ctrl.Service.ListUsers(c.UserContext(), q)
	if err != nil {
		return ctrl.fail(c, err)
	}

	docs := make([]map[string]any, 0, len(users))
	for i := range users {
		docs = append(docs, user.RedactForAdmin(&users[i]))
	}
	opts := q.Options()
	return utils.Success(c, fiber.Map{
		"users": docs,
		"total": total,
		"page":  opts.Offset/opts.Limit + 1,
		"limit": opts.Limit,
	})
}

// ExportUsers godoc
// @Summary      Export users as xlsx
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        role    query string false "Role filter"
// @Param        pending query bool   false "Only users waiting for manual verification"
// @Success      200  {file} file
// @Router       /admin/users/export [get]
func (ctrl *AdminController) ExportUsers(c *fiber.Ctx) error {
	q, err := ctrl.parseQuery(c)
	if err != nil {
		return utils.BadRequest(c)
	}
	data, err := ctrl.Service.ExportUsers(c.UserContext(), q)
	if err != nil {
		return ctrl.fail(c, err)
	}

	filename := fmt.Sprintf("users-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(data)
}

// userAction wraps a per-user admin operation addressed by :id.
func (ctrl *AdminController) userAction(action string, fn func(c *fiber.Ctx, id primitive.ObjectID) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return utils.BadRequest(c)
		}
		if err := fn(c, id); err != nil {
			return ctrl.fail(c, err)
		}
		ctrl.logger.Info("Admin action",
			zap.String("action", action),
			zap.String("userId", id.Hex()),
			zap.String("adminId", middleware.ClaimsFrom(c).UserID),
		)
		return utils.Success(c)
	}
}

// Verify godoc
// @Summary      Manually verify a user
// @Tags         admin
// @Security     BearerAuth
// @Param        id path string true "User id"
// @Success      200  {object} map[string]interface{}
// @Failure      404  {object} map[string]string
// @Router       /admin/users/{id}/verify [post]
func (ctrl *AdminController) Verify() fiber.Handler {
	return ctrl.userAction("verify", func(c *fiber.Ctx, id primitive.ObjectID) error {
		return ctrl.Service.SetVerified(c.UserContext(), id, true)
	})
}

// Disable godoc
// @Summary      Disable a user
// @Tags         admin
// @Security     BearerAuth
// @Param        id path string true "User id"
// @Success      200  {object} map[string]interface{}
// @Failure      404  {object} map[string]string
// @Router       /admin/users/{id}/disable [post]
func (ctrl *AdminController) Disable() fiber.Handler {
	return ctrl.userAction("disable", func(c *fiber.Ctx, id primitive.ObjectID) error {
		return ctrl.Service.SetDisabled(c.UserContext(), id, true)
	})
}

// Enable godoc
// @Summary      Enable a disabled user
// @Tags         admin
// @Security     BearerAuth
// @Param        id path string true "User id"
// @Success      200  {object} map[string]interface{}
// @Failure      404  {object} map[string]string
// @Router       /admin/users/{id}/enable [post]
func (ctrl *AdminController) Enable() fiber.Handler {
	return ctrl.userAction("enable", func(c *fiber.Ctx, id primitive.ObjectID) error {
		return ctrl.Service.SetDisabled(c.UserContext(), id, false)
	})
}

// Delete godoc
// @Summary      Delete a user
// @Tags         admin
// @Security     BearerAuth
// @Param        id path string true "User id"
// @Success      200  {object} map[string]interface{}
// @Failure      404  {object} map[string]string
// @Router       /admin/users/{id} [delete]
func (ctrl *AdminController) Delete() fiber.Handler {
	return ctrl.userAction("delete", func(c *fiber.Ctx, id primitive.ObjectID) error {
		return ctrl.Service.DeleteUser(c.UserContext(), id)
	})
}

// FailedMails godoc
// @Summary      Mails that could not be delivered
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page, starting at 1"
// @Param        limit query int false "Page size"
// @Success      200  {object} map[string]interface{}
// @Router       /admin/failed-mails [get]
func (ctrl *AdminController) FailedMails(c *fiber.Ctx) error {
	q, err := ctrl.parseQuery(c)
	if err != nil {
		return utils.BadRequest(c)
	}
	opts := q.Options()
	mails, total, err := ctrl.Service.FailedMails(c.UserContext(), opts.Limit, opts.Offset)
	if err != nil {
		return ctrl.fail(c, err)
	}
	return utils.Success(c, fiber.Map{"mails": mails, "total": total})
}
