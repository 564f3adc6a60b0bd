package audit

import (
	"github.com/kienquocIT/mis-api-sub003/internal/config"
	"github.com/kienquocIT/mis-api-sub003/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuditApi struct {
	controller *AuditController
	config     *config.Config
}

func NewAuditApi(controller *AuditController, config *config.Config) *AuditApi {
	return &AuditApi{
		controller: controller,
		config:     config,
	}
}

func (h *AuditApi) Setup(app *fiber.App) {
	audit := app.Group("/api/audit", middleware.AuthMiddleware(h.config.SkipAuth))

	audit.Get("/", h.controller.ListLogs)
	audit.Get("/documents/:id", h.controller.DocumentTrail)
	audit.Get("/documents/:id/export", h.controller.ExportDocumentTrail)
}
