package workflow

import (
	"github.com/kienquocIT/mis-api-sub003/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkflowController struct {
	Service WorkflowService
}

func NewWorkflowController(service WorkflowService) *WorkflowController {
	return &WorkflowController{Service: service}
}

// CreateWorkflow godoc
// @Summary Create a workflow definition
// @Description Validate and store an approval graph; new workflows start inactive
// @Tags workflows
// @Accept json
// @Produce json
// @Param request body Workflow true "Workflow definition"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid graph"
// @Router /api/workflows [post]
func (c *WorkflowController) CreateWorkflow(ctx *fiber.Ctx) error {
	var wf Workflow
	if err := ctx.BodyParser(&wf); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	tenantID, err := tenantOf(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	wf.TenantID = tenantID

	if err := c.Service.CreateWorkflow(ctx.UserContext(), wf); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "workflow created"})
}

// GetWorkflow godoc
// @Summary Get a workflow
// @Tags workflows
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} Workflow
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/workflows/{id} [get]
func (c *WorkflowController) GetWorkflow(ctx *fiber.Ctx) error {
	wf, err := c.Service.GetWorkflowByID(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if wf == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "workflow not found"})
	}
	return ctx.JSON(wf)
}

// ListWorkflows godoc
// @Summary List the tenant's workflows
// @Tags workflows
// @Produce json
// @Success 200 {array} Workflow
// @Router /api/workflows [get]
func (c *WorkflowController) ListWorkflows(ctx *fiber.Ctx) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	workflows, err := c.Service.ListWorkflows(ctx.UserContext(), tenantID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(workflows)
}

// UpdateWorkflow godoc
// @Summary Update a workflow definition
// @Description In-use workflows are immutable; disable first or create a new version
// @Tags workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID"
// @Param request body Workflow true "Workflow definition"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string "Workflow is in use"
// @Router /api/workflows/{id} [put]
func (c *WorkflowController) UpdateWorkflow(ctx *fiber.Ctx) error {
	var wf Workflow
	if err := ctx.BodyParser(&wf); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := c.Service.UpdateWorkflow(ctx.UserContext(), ctx.Params("id"), wf); err != nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "workflow updated"})
}

// ActivateWorkflow godoc
// @Summary Activate a workflow
// @Description Mark the workflow in use for its application; at most one per tenant and application
// @Tags workflows
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Graph validation failed"
// @Router /api/workflows/{id}/activate [post]
func (c *WorkflowController) ActivateWorkflow(ctx *fiber.Ctx) error {
	if err := c.Service.ActivateWorkflow(ctx.UserContext(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "workflow activated"})
}

// DisableWorkflow godoc
// @Summary Disable a workflow
// @Tags workflows
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} map[string]string
// @Router /api/workflows/{id}/disable [post]
func (c *WorkflowController) DisableWorkflow(ctx *fiber.Ctx) error {
	if err := c.Service.DisableWorkflow(ctx.UserContext(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "workflow disabled"})
}

// DeleteWorkflow godoc
// @Summary Delete a workflow
// @Description Referenced workflows cannot be deleted, only disabled
// @Tags workflows
// @Produce json
// @Param id path string true "Workflow ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string "Workflow is referenced by documents"
// @Router /api/workflows/{id} [delete]
func (c *WorkflowController) DeleteWorkflow(ctx *fiber.Ctx) error {
	if err := c.Service.DeleteWorkflow(ctx.UserContext(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "workflow deleted"})
}

func tenantOf(ctx *fiber.Ctx) (primitive.ObjectID, error) {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "missing identity")
	}
	return primitive.ObjectIDFromHex(claims.TenantID)
}
