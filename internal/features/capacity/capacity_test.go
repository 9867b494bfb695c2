package capacity

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"labhive/internal/common/models"
	"labhive/internal/features/user"
	"labhive/internal/features/user/usertest"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	app       *fiber.App
	users     *usertest.Users
	lab       *models.User
	volunteer *models.User
}

func publicLab(org string, tc *models.TestCapacity) *models.User {
	return &models.User{
		Role:         models.RoleLabDiag,
		Contact:      models.Contact{Email: org + "@example.org"},
		Organization: org,
		Slug:         org,
		Consent:      models.Consent{PublicSearch: true, Processing: true},
		Verified:     models.Verified{Mail: true, Manual: true},
		Location:     models.NewGeoPoint(48.137, 11.575),
		TestCapacity: tc,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		lab:       publicLab("mylab", nil),
		volunteer: &models.User{Role: models.RoleVolunteer, Contact: models.Contact{Email: "v@example.org"}},
	}
	f.users = usertest.NewUsers(
		f.lab,
		f.volunteer,
		publicLab("full", &models.TestCapacity{Capacity: 100, Used: 120, UpdatedAt: fixedNow.Add(-time.Hour)}),
		publicLab("half", &models.TestCapacity{Capacity: 200, Used: 100, UpdatedAt: fixedNow.Add(-2 * time.Hour)}),
	)
	service := NewCapacityService(user.NewUserService(f.users, usertest.NewAdmins(), zap.NewNop())).(*CapacityServiceImpl)
	service.now = func() time.Time { return fixedNow }

	f.app = fiber.New()
	NewCapacityApi(NewCapacityController(service, zap.NewNop())).Setup(f.app)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, u *models.User, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if u != nil {
		tok, err := utils.GenerateToken(u.ID, string(u.Role))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestCapacity_RequiresAuth(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, "GET", "/testCapacity", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "not_authorized", body["error"])
}

func TestCapacity_GetAndUpdate(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, "GET", "/testCapacity", f.lab, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, body["data"].(map[string]any)["capacity"])

	status, _ = f.do(t, "POST", "/testCapacity", f.lab, map[string]int{"capacity": 50, "used": 20})
	require.Equal(t, fiber.StatusOK, status)

	stored := f.users.Get(f.lab.ID)
	require.NotNil(t, stored.TestCapacity)
	assert.Equal(t, 50, stored.TestCapacity.Capacity)
	assert.Equal(t, 20, stored.TestCapacity.Used)
	assert.True(t, stored.TestCapacity.UpdatedAt.Equal(fixedNow))

	status, body = f.do(t, "GET", "/testCapacity", f.lab, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 50, body["data"].(map[string]any)["capacity"])
}

func TestCapacity_UpdateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	for name, in := range map[string]any{
		"missing used":       map[string]int{"capacity": 5},
		"negative":           map[string]int{"capacity": -1, "used": 0},
		"used over capacity": map[string]int{"capacity": 5, "used": 6},
	} {
		t.Run(name, func(t *testing.T) {
			status, body := f.do(t, "POST", "/testCapacity", f.lab, in)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, "bad_request", body["error"])
		})
	}
}

func TestCapacity_OnlyDiagnosticLabs(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, "GET", "/testCapacity", f.volunteer, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = f.do(t, "POST", "/testCapacity", f.volunteer, map[string]int{"capacity": 1, "used": 0})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCapacity_Query(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, "GET", "/testCapacity/query", f.volunteer, nil)
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 2, data["labs"])
	assert.EqualValues(t, 300, data["capacity"])
	assert.EqualValues(t, 220, data["used"])
	assert.EqualValues(t, 100, data["free"])
	assert.Equal(t, fixedNow.Add(-time.Hour).Format(time.RFC3339), data["updatedAt"])

	entries := data["entries"].([]any)
	require.Len(t, entries, 2)
	for _, e := range entries {
		entry := e.(map[string]any)
		assert.NotContains(t, entry, "contact")
		assert.Equal(t, 48.14, entry["marker"].(map[string]any)["lat"])
	}
}
