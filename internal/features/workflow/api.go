package workflow

import (
	"github.com/kienquocIT/mis-api-sub003/internal/config"
	"github.com/kienquocIT/mis-api-sub003/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WorkflowApi struct {
	controller *WorkflowController
	config     *config.Config
}

func NewWorkflowApi(controller *WorkflowController, config *config.Config) *WorkflowApi {
	return &WorkflowApi{
		controller: controller,
		config:     config,
	}
}

func (h *WorkflowApi) Setup(app *fiber.App) {
	grp := app.Group("/api/workflows", middleware.AuthMiddleware(h.config.SkipAuth), middleware.TenantMiddleware())

	grp.Post("/", h.controller.CreateWorkflow)
	grp.Get("/", h.controller.ListWorkflows)
	grp.Get("/:id", h.controller.GetWorkflow)
	grp.Put("/:id", h.controller.UpdateWorkflow)
	grp.Delete("/:id", h.controller.DeleteWorkflow)
	grp.Post("/:id/activate", h.controller.ActivateWorkflow)
	grp.Post("/:id/disable", h.controller.DisableWorkflow)
}
