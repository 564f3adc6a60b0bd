package audit

import (
	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	Service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{Service: service}
}

// ListLogs godoc
// @Summary List audit logs
// @Description List configuration audit logs, newest first
// @Tags audit
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {array} models.AuditLog
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/audit [get]
func (c *AuditController) ListLogs(ctx *fiber.Ctx) error {
	page := int64(ctx.QueryInt("page", 1))
	limit := int64(ctx.QueryInt("limit", 20))

	filters := map[string]interface{}{}
	if app := ctx.Query("app"); app != "" {
		filters["app_code"] = app
	}

	logs, err := c.Service.ListLogs(ctx.UserContext(), filters, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(logs)
}

// DocumentTrail godoc
// @Summary Get a document's action trail
// @Description Ordered, append-only chain of workflow actions for one document
// @Tags audit
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {array} ActionEntry
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/audit/documents/{id} [get]
func (c *AuditController) DocumentTrail(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	entries, err := c.Service.DocumentTrail(ctx.UserContext(), id)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(entries)
}

// ExportDocumentTrail godoc
// @Summary Export a document's action trail
// @Description Download the action chain as an xlsx workbook
// @Tags audit
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/audit/documents/{id}/export [get]
func (c *AuditController) ExportDocumentTrail(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	data, filename, err := c.Service.ExportDocumentTrail(ctx.UserContext(), id)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set("Content-Disposition", "attachment; filename="+filename)
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return ctx.Send(data)
}
