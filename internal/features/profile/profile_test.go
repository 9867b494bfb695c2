package profile

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
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type notice struct {
	to     email.Recipient
	sender string
	id     string
	token  string
}

type mockMail struct {
	email.EmailService
	notices []notice
}

func (m *mockMail) SendNotAvailableNotice(ctx context.Context, to email.Recipient, sender, id, t string) {
	m.notices = append(m.notices, notice{to: to, sender: sender, id: id, token: t})
}

type fixture struct {
	app       *fiber.App
	users     *usertest.Users
	mail      *mockMail
	volunteer *models.User
	hidden    *models.User
	lab       *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		mail: &mockMail{},
		volunteer: &models.User{
			Role:     models.RoleVolunteer,
			Slug:     "vera-volunteer-abc123",
			Contact:  models.Contact{Email: "vera@example.org", Firstname: "Vera", Lastname: "Volunteer"},
			Password: "$2a$10$secret",
			Consent:  models.Consent{PublicSearch: true, Processing: true},
			Verified: models.Verified{Mail: true, Manual: true},
			Details:  &models.VolunteerDetails{Qualification: "MTA", Availability: models.Availability{Available: true}},
		},
		hidden: &models.User{
			Role:    models.RoleVolunteer,
			Slug:    "hidden-def456",
			Contact: models.Contact{Email: "hidden@example.org"},
			Details: &models.VolunteerDetails{},
		},
		lab: &models.User{
			Role:         models.RoleLabDiag,
			Slug:         "lab-0a0b0c",
			Contact:      models.Contact{Email: "lab@example.org", Firstname: "Lars"},
			Organization: "Diagnostics Lab",
			Verified:     models.Verified{Mail: true, Manual: true},
		},
	}
	f.users = usertest.NewUsers(f.volunteer, f.hidden, f.lab)
	users := user.NewUserService(f.users, usertest.NewAdmins(), zap.NewNop())

	f.app = fiber.New()
	NewProfileApi(NewProfileController(NewProfileService(users, f.mail), zap.NewNop())).Setup(f.app)
	return f
}

func tokenFor(t *testing.T, u *models.User) string {
	t.Helper()
	tok, err := utils.GenerateToken(u.ID, string(u.Role))
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, path string, body any, bearer string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]any
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestGetOwnProfile(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, "GET", "/profile", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := f.do(t, "GET", "/profile", nil, tokenFor(t, f.hidden))
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.NotContains(t, data, "password")
	assert.Contains(t, data, "contact")
	assert.Contains(t, data, "consent")
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, "POST", "/profile", map[string]any{
		"contact":      map[string]any{"firstname": "Vera<script>x</script>", "lastname": "V"},
		"publicSearch": true,
		"organization": "ignored for volunteers",
		"details":      map[string]any{"skills": []string{"PCR", "<b>ELISA</b>"}},
	}, tokenFor(t, f.volunteer))
	require.Equal(t, fiber.StatusOK, status, body)

	stored := f.users.Get(f.volunteer.ID)
	assert.Equal(t, "Vera", stored.Contact.Firstname)
	assert.Equal(t, []string{"PCR", "ELISA"}, stored.Details.Skills)
	assert.Empty(t, stored.Organization)

	status, _ = f.do(t, "POST", "/profile", map[string]any{"contact": map[string]any{}}, tokenFor(t, f.volunteer))
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRevokeAndDelete(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, "POST", "/profile/revoke", nil, tokenFor(t, f.volunteer))
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, f.users.Get(f.volunteer.ID).Consent.PublicSearch)

	status, _ = f.do(t, "DELETE", "/profile", nil, tokenFor(t, f.volunteer))
	require.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, f.users.Get(f.volunteer.ID))

	status, _ = f.do(t, "GET", "/profile", nil, tokenFor(t, f.volunteer))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestPublicProfile(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, "GET", "/profile/"+f.volunteer.Slug, nil, "")
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.NotContains(t, data, "contact")
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "verified")

	status, body = f.do(t, "GET", "/profile/"+f.volunteer.ID.Hex(), nil, tokenFor(t, f.lab))
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body["data"], "contact")

	status, body = f.do(t, "GET", "/profile/"+f.hidden.Slug, nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])

	status, _ = f.do(t, "GET", "/profile/"+f.hidden.Slug, nil, tokenFor(t, f.hidden))
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = f.do(t, "GET", "/profile/does-not-exist", nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestNotAvailableNoticeAndUpdateAvailability(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, "POST", "/profile/"+f.volunteer.Slug+"/notAvailableNotice", nil, tokenFor(t, f.hidden))
	assert.Equal(t, fiber.StatusUnauthorized, status, "volunteers cannot send notices")

	status, _ = f.do(t, "POST", "/profile/"+f.volunteer.Slug+"/notAvailableNotice", nil, tokenFor(t, f.lab))
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, f.mail.notices, 1)
	n := f.mail.notices[0]
	assert.Equal(t, "vera@example.org", n.to.Email)
	assert.Equal(t, "Diagnostics Lab", n.sender)
	assert.False(t, f.users.Get(f.volunteer.ID).Details.Availability.Available)

	status, _ = f.do(t, "POST", "/profile/"+f.volunteer.Slug+"/updateAvailability?token="+tokenFor(t, f.volunteer), map[string]any{"available": true}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status, "session tokens are not availability tokens")

	other, err := utils.GenerateAvailabilityToken(primitive.NewObjectID())
	require.NoError(t, err)
	status, _ = f.do(t, "POST", "/profile/"+f.volunteer.Slug+"/updateAvailability?token="+other, map[string]any{"available": true}, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = f.do(t, "POST", "/profile/"+n.id+"/updateAvailability?token="+n.token, map[string]any{"available": true}, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, f.users.Get(f.volunteer.ID).Details.Availability.Available)
}
