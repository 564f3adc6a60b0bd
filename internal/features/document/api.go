package document

import (
	"github.com/kienquocIT/mis-api-sub003/internal/config"
	"github.com/kienquocIT/mis-api-sub003/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DocumentApi struct {
	controller *DocumentController
	config     *config.Config
}

func NewDocumentApi(controller *DocumentController, config *config.Config) *DocumentApi {
	return &DocumentApi{
		controller: controller,
		config:     config,
	}
}

func (h *DocumentApi) Setup(app *fiber.App) {
	docs := app.Group("/api/documents/:app", middleware.AuthMiddleware(h.config.SkipAuth), middleware.TenantMiddleware())

	docs.Post("/", h.controller.CreateDocument)
	docs.Get("/", h.controller.ListDocuments)
	docs.Get("/:id", h.controller.GetDocument)
	docs.Put("/:id", h.controller.UpdateDocument)
}
