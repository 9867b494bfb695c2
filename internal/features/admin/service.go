package admin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"labhive/internal/common/models"
	"labhive/internal/features/email"
	"labhive/internal/features/user"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultLimit = 50
	maxLimit     = 500
	maxPage      = 10000
	exportSheet  = "Users"
)

// ListQuery filters the admin user listing.
type ListQuery struct {
	Role    string `query:"role" validate:"omitempty,oneof=volunteer lab-diagnostic lab-research"`
	Pending bool   `query:"pending"`
	Page    int64  `query:"page" validate:"gte=0,lte=10000"`
	Limit   int64  `query:"limit" validate:"gte=0,lte=500"`
}

// Filter selects users by role. Pending restricts the result to users
// still waiting for manual verification.
func (q *ListQuery) Filter() bson.M {
	filter := bson.M{}
	if q.Role != "" {
		filter["role"] = q.Role
	}
	if q.Pending {
		filter["verified.manual"] = false
	}
	return filter
}

func (q *ListQuery) Options() user.ListOptions {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	page := min(max(q.Page, 1), maxPage)
	return user.ListOptions{Limit: limit, Offset: (page - 1) * limit}
}

type AdminService interface {
	ListUsers(ctx context.Context, q *ListQuery) ([]models.User, int64, error)
	ExportUsers(ctx context.Context, q *ListQuery) ([]byte, error)
	SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) error
	SetDisabled(ctx context.Context, id primitive.ObjectID, disabled bool) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	FailedMails(ctx context.Context, limit, offset int64) ([]email.FailedMail, int64, error)
}

type AdminServiceImpl struct {
	Users user.UserService
	Mail  email.EmailService
}

func NewAdminService(users user.UserService, mail email.EmailService) AdminService {
	return &AdminServiceImpl{Users: users, Mail: mail}
}

func (s *AdminServiceImpl) ListUsers(ctx context.Context, q *ListQuery) ([]models.User, int64, error) {
	return s.Users.ListUsers(ctx, q.Filter(), q.Options())
}

func (s *AdminServiceImpl) SetVerified(ctx context.Context, id primitive.ObjectID, verified bool) error {
	return s.Users.UpdateUser(ctx, id, bson.M{"verified.manual": verified})
}

func (s *AdminServiceImpl) SetDisabled(ctx context.Context, id primitive.ObjectID, disabled bool) error {
	return s.Users.UpdateUser(ctx, id, bson.M{"disabled": disabled})
}

func (s *AdminServiceImpl) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	return s.Users.DeleteUser(ctx, id)
}

func (s *AdminServiceImpl) FailedMails(ctx context.Context, limit, offset int64) ([]email.FailedMail, int64, error) {
	return s.Mail.ListFailed(ctx, limit, offset)
}

var exportColumns = []string{
	"id", "role", "email", "firstname", "lastname", "phone", "organization",
	"zipcode", "city", "publicSearch", "verifiedMail", "verifiedManual", "disabled", "createdAt",
}

func exportRow(u *models.User) []any {
	return []any{
		u.ID.Hex(), string(u.Role), u.Contact.Email, u.Contact.Firstname, u.Contact.Lastname,
		u.Contact.Phone, u.Organization, u.Address.Zipcode, u.Address.City,
		u.Consent.PublicSearch, u.Verified.Mail, u.Verified.Manual, u.Disabled,
		u.CreatedAt.UTC().Format(time.DateTime),
	}
}

// ExportUsers writes every user matching q (ignoring paging) to an xlsx
// workbook.
func (s *AdminServiceImpl) ExportUsers(ctx context.Context, q *ListQuery) ([]byte, error) {
	users, _, err := s.Users.ListUsers(ctx, q.Filter(), user.ListOptions{})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	header := make([]any, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}
	last, _ := excelize.ColumnNumberToName(len(exportColumns))
	if err := f.SetCellStyle(exportSheet, "A1", last+"1", headerStyle); err != nil {
		return nil, err
	}

	for i := range users {
		row := exportRow(&users[i])
		if err := f.SetSheetRow(exportSheet, "A"+strconv.Itoa(i+2), &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(exportSheet, "A", last, 18); err != nil {
		return nil, err
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
