package search

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"labhive/internal/common/models"
	"labhive/internal/features/user"
	"labhive/internal/features/user/usertest"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func public(u *models.User) *models.User {
	u.Consent = models.Consent{PublicSearch: true, Processing: true}
	u.Verified = models.Verified{Mail: true, Manual: true}
	return u
}

func newSearchApp(seed ...*models.User) *fiber.App {
	users := user.NewUserService(usertest.NewUsers(seed...), usertest.NewAdmins(), zap.NewNop())
	app := fiber.New()
	NewSearchApi(NewSearchController(NewSearchService(users), zap.NewNop())).Setup(app)
	return app
}

func get(t *testing.T, app *fiber.App, path, bearer string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("GET", "/api/v1"+path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func seedUsers() []*models.User {
	return []*models.User{
		public(&models.User{
			Role:    models.RoleVolunteer,
			Contact: models.Contact{Email: "pcr@example.org"},
			Details: &models.VolunteerDetails{Skills: []string{"pcr"}, Availability: models.Availability{Available: true}},
		}),
		public(&models.User{
			Role:    models.RoleVolunteer,
			Contact: models.Contact{Email: "elisa@example.org"},
			Details: &models.VolunteerDetails{Skills: []string{"elisa"}},
		}),
		public(&models.User{
			Role:         models.RoleLabDiag,
			Contact:      models.Contact{Email: "lab@example.org"},
			Organization: "Lab",
			Location:     models.NewGeoPoint(52.5123, 13.4321),
		}),
		{
			Role:    models.RoleVolunteer,
			Contact: models.Contact{Email: "private@example.org"},
			Details: &models.VolunteerDetails{Skills: []string{"pcr"}},
		},
	}
}

func TestSearch(t *testing.T) {
	app := newSearchApp(seedUsers()...)

	status, body := get(t, app, "/search", "")
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 3, data["total"])
	for _, u := range data["users"].([]any) {
		doc := u.(map[string]any)
		assert.NotContains(t, doc, "contact")
		assert.NotContains(t, doc, "password")
	}

	status, body = get(t, app, "/search?role=volunteer&skills=pcr,%20qpcr", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["data"].(map[string]any)["total"])

	status, body = get(t, app, "/search?role=volunteer&available=true", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["data"].(map[string]any)["total"])

	status, body = get(t, app, "/search?limit=1&page=2", "")
	require.Equal(t, fiber.StatusOK, status)
	data = body["data"].(map[string]any)
	assert.Len(t, data["users"], 1)
	assert.EqualValues(t, 2, data["page"])
}

func TestSearch_ContactVisibleForLabs(t *testing.T) {
	seed := seedUsers()
	app := newSearchApp(seed...)
	tok, err := utils.GenerateToken(seed[2].ID, "lab-diagnostic")
	require.NoError(t, err)

	status, body := get(t, app, "/search?role=volunteer", tok)
	require.Equal(t, fiber.StatusOK, status)
	for _, u := range body["data"].(map[string]any)["users"].([]any) {
		assert.Contains(t, u.(map[string]any), "contact")
	}
}

func TestSearch_InvalidQuery(t *testing.T) {
	app := newSearchApp()
	for _, q := range []string{"?role=admin", "?lat=100&lng=0", "?limit=1000", "?lat=abc", "?page=10001", "?page=9223372036854775807", "?page=99999999999999999999"} {
		status, body := get(t, app, "/search"+q, "")
		assert.Equal(t, fiber.StatusBadRequest, status, q)
		assert.Equal(t, "bad_request", body["error"])
	}
}

func TestQueryFilter(t *testing.T) {
	q := &Query{Role: "lab-diagnostic", Lat: 52.5, Lng: 13.4, HasLocation: true}
	filter := q.Filter()
	assert.Equal(t, "lab-diagnostic", filter["role"])

	geo := filter["location"].(bson.M)["$geoWithin"].(bson.M)["$centerSphere"].(bson.A)
	assert.Equal(t, bson.A{13.4, 52.5}, geo[0])
	assert.InDelta(t, defaultRadius/earthRadiusKm, geo[1], 1e-9)

	assert.Empty(t, (&Query{}).Filter())
	assert.Equal(t, user.ListOptions{Limit: defaultLimit}, (&Query{}).Options())
	assert.Equal(t, user.ListOptions{Limit: maxLimit, Offset: 2 * maxLimit}, (&Query{Page: 3, Limit: 500}).Options())
}

func TestQueryOptions_PageIsBounded(t *testing.T) {
	opts := (&Query{Page: 1<<63 - 1, Limit: maxLimit}).Options()
	assert.Equal(t, int64((maxPage-1)*maxLimit), opts.Offset)
	assert.Positive(t, opts.Offset)

	status, body := get(t, newSearchApp(seedUsers()...), "/search?page=10000", "")
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, maxPage, data["page"])
	assert.Empty(t, data["users"])
}

func TestLabLocationsAndCoverage(t *testing.T) {
	app := newSearchApp(seedUsers()...)

	status, body := get(t, app, "/lab-locations", "")
	require.Equal(t, fiber.StatusOK, status)
	markers := body["data"].([]any)
	require.Len(t, markers, 1)
	marker := markers[0].(map[string]any)
	assert.Equal(t, 52.51, marker["lat"])
	assert.Equal(t, 13.43, marker["lng"])
	assert.Equal(t, "lab-diagnostic", marker["role"])

	status, body = get(t, app, "/test-coverage", "")
	require.Equal(t, fiber.StatusOK, status)
	counts := body["data"].(map[string]any)["counts"].(map[string]any)
	assert.EqualValues(t, 2, counts["volunteer"])
	assert.EqualValues(t, 1, counts["lab-diagnostic"])
}
