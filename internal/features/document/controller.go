package document

import (
	"github.com/kienquocIT/mis-api-sub003/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DocumentController struct {
	Service DocumentService
}

func NewDocumentController(service DocumentService) *DocumentController {
	return &DocumentController{Service: service}
}

type createDocumentRequest struct {
	Data map[string]interface{} `json:"data"`
}

type updateDocumentRequest struct {
	Data map[string]interface{} `json:"data"`
}

// CreateDocument godoc
// @Summary Create a business document
// @Description Persist a document and push it into the application's active workflow
// @Tags documents
// @Accept json
// @Produce json
// @Param app path string true "Application code"
// @Param request body createDocumentRequest true "Document payload"
// @Success 201 {object} Document
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 422 {object} map[string]string "Workflow rejected the document"
// @Router /api/documents/{app} [post]
func (c *DocumentController) CreateDocument(ctx *fiber.Ctx) error {
	var req createDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	claims := ClaimsOf(ctx)
	tenantID, err := primitive.ObjectIDFromHex(claims.TenantID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid tenant id in token"})
	}

	doc := &Document{
		TenantID:  tenantID,
		CompanyID: claims.CompanyID,
		AppCode:   ctx.Params("app"),
		Data:      req.Data,
	}

	created, result, err := c.Service.CreateDocument(ctx.UserContext(), doc, ActorOf(claims))
	if err != nil {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"document": created,
		"result":   result,
	})
}

// GetDocument godoc
// @Summary Get a document
// @Tags documents
// @Produce json
// @Param app path string true "Application code"
// @Param id path string true "Document ID"
// @Success 200 {object} Document
// @Failure 404 {object} map[string]string "Not found"
// @Router /api/documents/{app}/{id} [get]
func (c *DocumentController) GetDocument(ctx *fiber.Ctx) error {
	doc, err := c.Service.GetDocument(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if doc == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "document not found"})
	}
	return ctx.JSON(doc)
}

// ListDocuments godoc
// @Summary List documents of an application
// @Tags documents
// @Produce json
// @Param app path string true "Application code"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {array} Document
// @Router /api/documents/{app} [get]
func (c *DocumentController) ListDocuments(ctx *fiber.Ctx) error {
	claims := ClaimsOf(ctx)
	tenantID, err := primitive.ObjectIDFromHex(claims.TenantID)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid tenant id in token"})
	}

	docs, err := c.Service.ListDocuments(ctx.UserContext(), tenantID, ctx.Params("app"),
		int64(ctx.QueryInt("page", 1)), int64(ctx.QueryInt("limit", 20)))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(docs)
}

// UpdateDocument godoc
// @Summary Update a document's data
// @Description Edit the payload of an open document; workflow state is not touched
// @Tags documents
// @Accept json
// @Produce json
// @Param app path string true "Application code"
// @Param id path string true "Document ID"
// @Param request body updateDocumentRequest true "New payload"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string "Document is closed"
// @Router /api/documents/{app}/{id} [put]
func (c *DocumentController) UpdateDocument(ctx *fiber.Ctx) error {
	var req updateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	err := c.Service.UpdateDocument(ctx.UserContext(), ctx.Params("id"), req.Data, ActorOf(ClaimsOf(ctx)))
	if err != nil {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"message": "document updated"})
}

// ClaimsOf pulls the authenticated identity stored by the auth middleware.
func ClaimsOf(ctx *fiber.Ctx) *utils.UserClaims {
	if claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		return claims
	}
	return &utils.UserClaims{}
}

// ActorOf prefers the employee identity; service accounts fall back to the
// user ID.
func ActorOf(claims *utils.UserClaims) string {
	if claims.EmployeeID != "" {
		return claims.EmployeeID
	}
	return claims.UserID
}
