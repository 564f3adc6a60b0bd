package organization

import (
	"github.com/kienquocIT/mis-api-sub003/internal/config"
	"github.com/kienquocIT/mis-api-sub003/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type OrganizationApi struct {
	controller *OrganizationController
	config     *config.Config
}

func NewOrganizationApi(controller *OrganizationController, config *config.Config) *OrganizationApi {
	return &OrganizationApi{
		controller: controller,
		config:     config,
	}
}

func (h *OrganizationApi) Setup(app *fiber.App) {
	grp := app.Group("/api/employees", middleware.AuthMiddleware(h.config.SkipAuth), middleware.TenantMiddleware())

	grp.Post("/", h.controller.CreateEmployee)
	grp.Get("/", h.controller.ListEmployees)
	grp.Get("/:id", h.controller.GetEmployee)
}
