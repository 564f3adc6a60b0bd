package system

import (
	"github.com/kienquocIT/mis-api-sub003/internal/common/api"
	"github.com/kienquocIT/mis-api-sub003/internal/config"

	"github.com/gofiber/fiber/v2"
)

type HealthApi struct {
	config *config.Config
}

func NewHealthApi(cfg *config.Config) api.Route {
	return &HealthApi{config: cfg}
}

// Setup registers the liveness probe.
func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"app":    h.config.AppId,
		})
	})
}
