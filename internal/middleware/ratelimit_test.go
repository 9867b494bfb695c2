package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"labhive/internal/config"
	"labhive/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func limitedApp(cfg *config.Config, m *metrics.Metrics) *fiber.App {
	app := fiber.New()
	app.Use(RateLimiter(cfg, nil, m, zap.NewNop()))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestRateLimiter_RejectsRequestOverBudget(t *testing.T) {
	const budget = 3
	m := metrics.NewMetrics()
	app := limitedApp(&config.Config{
		RateLimitPoints:        budget,
		RateLimitBlockDuration: time.Minute,
	}, m)

	for i := 0; i < budget; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Too many requests", body["error"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("true")))
}

func TestRateLimiter_DisabledLetsEveryRequestThrough(t *testing.T) {
	const budget = 3
	m := metrics.NewMetrics()
	app := limitedApp(&config.Config{
		RateLimitPoints:        budget,
		RateLimitBlockDuration: time.Minute,
		DisableRateLimiting:    true,
	}, m)

	for i := 0; i < budget+2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("false")))
}

func TestRateLimiter_WindowResets(t *testing.T) {
	app := limitedApp(&config.Config{
		RateLimitPoints:        1,
		RateLimitBlockDuration: time.Second,
	}, metrics.NewMetrics())

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	time.Sleep(2100 * time.Millisecond)

	resp, err = app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
