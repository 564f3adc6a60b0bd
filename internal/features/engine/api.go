package engine

import (
	"github.com/kienquocIT/mis-api-sub003/internal/config"
	"github.com/kienquocIT/mis-api-sub003/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type EngineApi struct {
	controller *EngineController
	config     *config.Config
}

func NewEngineApi(controller *EngineController, config *config.Config) *EngineApi {
	return &EngineApi{
		controller: controller,
		config:     config,
	}
}

func (h *EngineApi) Setup(app *fiber.App) {
	app.Post("/api/documents/:app/:id/advance",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.TenantMiddleware(),
		h.controller.Advance,
	)
}
