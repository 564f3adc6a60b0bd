package engine

import (
	"errors"

	common_models "github.com/kienquocIT/mis-api-sub003/internal/common/models"
	"github.com/kienquocIT/mis-api-sub003/internal/features/document"

	"github.com/gofiber/fiber/v2"
)

type EngineController struct {
	Service EngineService
}

func NewEngineController(service EngineService) *EngineController {
	return &EngineController{Service: service}
}

type advanceRequest struct {
	Action string `json:"action"`
}

// Advance godoc
// @Summary Submit a workflow action on a document
// @Description Record the caller's action and advance the document when the node's quorum is met
// @Tags documents
// @Accept json
// @Produce json
// @Param app path string true "Application code"
// @Param id path string true "Document ID"
// @Param request body advanceRequest true "Action verb"
// @Success 200 {object} models.AdvanceResult
// @Failure 403 {object} map[string]string "Actor not authorized"
// @Failure 409 {object} map[string]string "Concurrent modification or closed document"
// @Failure 422 {object} map[string]string "Resolution failed or no transition matched"
// @Router /api/documents/{app}/{id}/advance [post]
func (c *EngineController) Advance(ctx *fiber.Ctx) error {
	var req advanceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	result, err := c.Service.Advance(ctx.UserContext(), ctx.Params("id"),
		document.ActorOf(document.ClaimsOf(ctx)), common_models.WorkflowAction(req.Action))
	if err != nil {
		return httpError(ctx, err)
	}
	return ctx.JSON(result)
}

// httpError maps engine failures onto HTTP statuses.
func httpError(ctx *fiber.Ctx, err error) error {
	var resolution *ResolutionError
	var noTransition *NoMatchingTransitionError

	switch {
	case errors.Is(err, ErrActorNotAuthorized):
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrConcurrentModification), errors.Is(err, ErrDocumentClosed):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrNoWorkflowInUse),
		errors.As(err, &resolution),
		errors.As(err, &noTransition):
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
}
