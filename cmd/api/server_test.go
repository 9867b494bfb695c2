package main

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	common_api "labhive/internal/common/api"
	"labhive/internal/config"
	"labhive/internal/database"
	"labhive/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()
	readiness := database.NewReadiness()
	readiness.BeginMigration()
	readiness.MarkReady()

	app := NewFiberServer(fxtest.NewLifecycle(t), cfg, readiness, nil, metrics.NewMetrics(), zap.NewNop())
	app.Get(common_api.Prefix+"/ip", func(c *fiber.Ctx) error {
		return c.SendString(c.IP())
	})
	return app
}

func limitedConfig() *config.Config {
	return &config.Config{
		RateLimitPoints:        2,
		RateLimitBlockDuration: time.Minute,
	}
}

func requestFrom(t *testing.T, app *fiber.App, forwardedFor string) int {
	t.Helper()
	req := httptest.NewRequest("GET", common_api.Prefix+"/ip", nil)
	if forwardedFor != "" {
		req.Header.Set(fiber.HeaderXForwardedFor, forwardedFor)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRateLimitPerForwardedClient(t *testing.T) {
	cfg := limitedConfig()
	cfg.TrustProxy = true
	// app.Test connects from 0.0.0.0.
	cfg.TrustedProxies = []string{"0.0.0.0"}
	app := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		assert.Equal(t, fiber.StatusOK, requestFrom(t, app, "203.0.113.10"))
	}
	assert.Equal(t, fiber.StatusTooManyRequests, requestFrom(t, app, "203.0.113.10"))

	// Another client behind the same proxy keeps its own budget.
	assert.Equal(t, fiber.StatusOK, requestFrom(t, app, "203.0.113.20"))
	assert.Equal(t, fiber.StatusOK, requestFrom(t, app, "203.0.113.20, 10.0.0.2"))
}

func TestForwardedHeaderFromUntrustedPeerIsIgnored(t *testing.T) {
	cfg := limitedConfig()
	cfg.TrustProxy = true
	cfg.TrustedProxies = []string{"10.0.0.0/8"}
	app := newTestServer(t, cfg)

	assert.Equal(t, fiber.StatusOK, requestFrom(t, app, "203.0.113.10"))
	assert.Equal(t, fiber.StatusOK, requestFrom(t, app, "203.0.113.20"))
	// Spoofed addresses do not buy a fresh budget.
	assert.Equal(t, fiber.StatusTooManyRequests, requestFrom(t, app, "203.0.113.30"))
}

func TestClientIPResolution(t *testing.T) {
	cfg := limitedConfig()
	cfg.RateLimitPoints = 10
	cfg.TrustProxy = true
	cfg.TrustedProxies = []string{"0.0.0.0"}
	app := newTestServer(t, cfg)

	req := httptest.NewRequest("GET", common_api.Prefix+"/ip", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, "not-an-ip, 198.51.100.4")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.4", string(body))

	direct := newTestServer(t, limitedConfig())
	req = httptest.NewRequest("GET", common_api.Prefix+"/ip", nil)
	req.Header.Set(fiber.HeaderXForwardedFor, "198.51.100.4")
	resp, err = direct.Test(req)
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", string(body))
}
