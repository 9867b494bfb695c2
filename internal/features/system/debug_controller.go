package system

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"labhive/internal/config"

	"github.com/gofiber/fiber/v2"
)

type DebugController struct {
	config *config.Config
	now    func() time.Time
}

func NewDebugController(cfg *config.Config) *DebugController {
	return &DebugController{config: cfg, now: time.Now}
}

// Debug godoc
// @Summary      Request and option dump (staging only)
// @Tags         debug
// @Produce      plain
// @Success      200  {string}  string
// @Router       /debug [get]
func (ctrl *DebugController) Debug(c *fiber.Ctx) error {
	headers, err := json.MarshalIndent(c.GetReqHeaders(), "", "    ")
	if err != nil {
		return err
	}
	options, err := json.Marshal(ctrl.config.Options())
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Time: %s\n", ctrl.now().Format(time.RFC1123))
	fmt.Fprintf(&b, "IP: %s\n", c.IP())
	fmt.Fprintf(&b, "Headers: %s\n", headers)
	fmt.Fprintf(&b, "OPT: %s\n", options)

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(b.String())
}

func (ctrl *DebugController) Robots(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlain)
	return c.SendString("User-agent: *\nDisallow: /")
}
