package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"labhive/internal/common/models"
	"labhive/internal/features/email"
	"labhive/internal/features/user"
	"labhive/internal/features/user/usertest"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type mockMail struct {
	email.EmailService
	failed []email.FailedMail
}

func (m *mockMail) ListFailed(ctx context.Context, limit, offset int64) ([]email.FailedMail, int64, error) {
	return m.failed, int64(len(m.failed)), nil
}

type fixture struct {
	app       *fiber.App
	users     *usertest.Users
	volunteer *models.User
	lab       *models.User
	admin     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		volunteer: &models.User{
			Role:     models.RoleVolunteer,
			Contact:  models.Contact{Email: "vera@example.org", Firstname: "Vera"},
			Password: "$2a$10$hash",
		},
		lab: &models.User{
			Role:         models.RoleLabDiag,
			Contact:      models.Contact{Email: "lab@example.org"},
			Organization: "Lab GmbH",
			Verified:     models.Verified{Mail: true, Manual: true},
		},
	}
	f.users = usertest.NewUsers(f.volunteer, f.lab)
	mail := &mockMail{failed: []email.FailedMail{{Kind: email.KindActivation, To: "x@example.org", Error: "timeout"}}}

	service := NewAdminService(user.NewUserService(f.users, usertest.NewAdmins(), zap.NewNop()), mail)
	f.app = fiber.New()
	NewAdminApi(NewAdminController(service, zap.NewNop())).Setup(f.app)

	tok, err := utils.GenerateToken(primitive.NewObjectID(), "admin")
	require.NoError(t, err)
	f.admin = tok
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string) *httpResult {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1/admin"+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return &httpResult{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type"), raw: raw}
}

type httpResult struct {
	status      int
	contentType string
	raw         []byte
}

func (r *httpResult) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.raw, &out), string(r.raw))
	return out
}

func TestAdmin_RequiresAdminToken(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "GET", "/users", "")
	assert.Equal(t, fiber.StatusUnauthorized, res.status)

	tok, err := utils.GenerateToken(f.volunteer.ID, "volunteer")
	require.NoError(t, err)
	res = f.do(t, "GET", "/users", tok)
	assert.Equal(t, fiber.StatusUnauthorized, res.status)
	assert.Equal(t, "not_authorized", res.json(t)["error"])
}

func TestAdmin_ListUsers(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "GET", "/users", f.admin)
	require.Equal(t, fiber.StatusOK, res.status)
	data := res.json(t)["data"].(map[string]any)
	assert.EqualValues(t, 2, data["total"])
	for _, u := range data["users"].([]any) {
		doc := u.(map[string]any)
		assert.NotContains(t, doc, "password")
		assert.Contains(t, doc, "contact")
		assert.Contains(t, doc, "verified")
	}

	res = f.do(t, "GET", "/users?role=lab-diagnostic", f.admin)
	require.Equal(t, fiber.StatusOK, res.status)
	assert.EqualValues(t, 1, res.json(t)["data"].(map[string]any)["total"])

	res = f.do(t, "GET", "/users?pending=true", f.admin)
	require.Equal(t, fiber.StatusOK, res.status)
	assert.EqualValues(t, 1, res.json(t)["data"].(map[string]any)["total"])

	res = f.do(t, "GET", "/users?role=admin", f.admin)
	assert.Equal(t, fiber.StatusBadRequest, res.status)

	res = f.do(t, "GET", "/users?page=9223372036854775807", f.admin)
	assert.Equal(t, fiber.StatusBadRequest, res.status)
}

func TestListQueryOptions_PageIsBounded(t *testing.T) {
	opts := (&ListQuery{Page: 1<<63 - 1}).Options()
	assert.Equal(t, int64(defaultLimit), opts.Limit)
	assert.Equal(t, int64((maxPage-1)*defaultLimit), opts.Offset)
}

func TestAdmin_ExportUsers(t *testing.T) {
	f := newFixture(t)

	res := f.do(t, "GET", "/users/export", f.admin)
	require.Equal(t, fiber.StatusOK, res.status)
	assert.Equal(t, xlsxContentType, res.contentType)

	book, err := excelize.OpenReader(bytes.NewReader(res.raw))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportColumns, rows[0][:len(exportColumns)])

	emails := []string{rows[1][2], rows[2][2]}
	assert.ElementsMatch(t, []string{"vera@example.org", "lab@example.org"}, emails)
}

func TestAdmin_UserActions(t *testing.T) {
	f := newFixture(t)
	id := f.volunteer.ID.Hex()

	require.Equal(t, fiber.StatusOK, f.do(t, "POST", "/users/"+id+"/verify", f.admin).status)
	assert.True(t, f.users.Get(f.volunteer.ID).Verified.Manual)

	require.Equal(t, fiber.StatusOK, f.do(t, "POST", "/users/"+id+"/disable", f.admin).status)
	assert.True(t, f.users.Get(f.volunteer.ID).Disabled)

	require.Equal(t, fiber.StatusOK, f.do(t, "POST", "/users/"+id+"/enable", f.admin).status)
	assert.False(t, f.users.Get(f.volunteer.ID).Disabled)

	require.Equal(t, fiber.StatusOK, f.do(t, "DELETE", "/users/"+id, f.admin).status)
	assert.Nil(t, f.users.Get(f.volunteer.ID))

	res := f.do(t, "DELETE", "/users/"+id, f.admin)
	assert.Equal(t, fiber.StatusNotFound, res.status)
	assert.Equal(t, "not_found", res.json(t)["error"])

	res = f.do(t, "POST", "/users/not-an-id/verify", f.admin)
	assert.Equal(t, fiber.StatusBadRequest, res.status)
}

func TestAdmin_FailedMails(t *testing.T) {
	f := newFixture(t)
	res := f.do(t, "GET", "/failed-mails", f.admin)
	require.Equal(t, fiber.StatusOK, res.status)
	data := res.json(t)["data"].(map[string]any)
	assert.EqualValues(t, 1, data["total"])
	mail := data["mails"].([]any)[0].(map[string]any)
	assert.Equal(t, "activation", mail["kind"])
	assert.Equal(t, "timeout", mail["error"])
}
