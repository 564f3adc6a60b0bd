package organization

import (
	"github.com/kienquocIT/mis-api-sub003/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrganizationController struct {
	Service OrganizationService
}

func NewOrganizationController(service OrganizationService) *OrganizationController {
	return &OrganizationController{Service: service}
}

// CreateEmployee godoc
// @Summary Create an employee record
// @Tags organization
// @Accept json
// @Produce json
// @Param request body Employee true "Employee"
// @Success 201 {object} Employee
// @Failure 400 {object} map[string]string "Invalid request"
// @Router /api/employees [post]
func (c *OrganizationController) CreateEmployee(ctx *fiber.Ctx) error {
	var emp Employee
	if err := ctx.BodyParser(&emp); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	tenantID, err := tenantOf(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	emp.TenantID = tenantID

	if err := c.Service.CreateEmployee(ctx.UserContext(), &emp); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(emp)
}

// GetEmployee godoc
// @Summary Get an employee by employee ID
// @Tags organization
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} Employee
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/employees/{id} [get]
func (c *OrganizationController) GetEmployee(ctx *fiber.Ctx) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	emp, err := c.Service.GetEmployee(ctx.UserContext(), tenantID, ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if emp == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "employee not found"})
	}
	return ctx.JSON(emp)
}

// ListEmployees godoc
// @Summary List the tenant's employees
// @Tags organization
// @Produce json
// @Success 200 {array} Employee
// @Router /api/employees [get]
func (c *OrganizationController) ListEmployees(ctx *fiber.Ctx) error {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	employees, err := c.Service.ListEmployees(ctx.UserContext(), tenantID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(employees)
}

func tenantOf(ctx *fiber.Ctx) (primitive.ObjectID, error) {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "missing identity")
	}
	return primitive.ObjectIDFromHex(claims.TenantID)
}
