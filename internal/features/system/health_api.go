package system

import (
	"labhive/internal/common/api"
	"labhive/internal/database"
	"labhive/internal/metrics"
	"labhive/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthApi serves the operational endpoints: health, metrics and the
// language lookup used by the frontend.
type HealthApi struct {
	readiness *database.Readiness
	metrics   *metrics.Metrics
}

func NewHealthApi(readiness *database.Readiness, m *metrics.Metrics) *HealthApi {
	return &HealthApi{readiness: readiness, metrics: m}
}

func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{})))
	app.Get(api.Prefix+"/language", h.Language)
}

// Health godoc
// @Summary      Readiness of the service
// @Tags         system
// @Produce      json
// @Success      200  {object} map[string]interface{}
// @Failure      503  {object} map[string]interface{}
// @Router       /health [get]
func (h *HealthApi) Health(c *fiber.Ctx) error {
	state := h.readiness.State()
	if state != database.StateReady {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return c.JSON(fiber.Map{"status": state.String()})
}

// Language godoc
// @Summary      Preferred language of the caller
// @Tags         system
// @Produce      json
// @Param        lang query string false "Explicit language"
// @Success      200  {object} map[string]interface{}
// @Router       /language [get]
func (h *HealthApi) Language(c *fiber.Ctx) error {
	return utils.Success(c, fiber.Map{"language": utils.LanguageOf(c)})
}
