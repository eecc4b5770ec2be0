package handlers

import (
	"log/slog"
	"net/http"

	"adjudication-service/internal/models"
	"adjudication-service/internal/services"
	"adjudication-service/pkg/response"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ClaimHandler struct {
	orchestrator *services.AdjudicationOrchestrator
}

func NewClaimHandler(orchestrator *services.AdjudicationOrchestrator) *ClaimHandler {
	return &ClaimHandler{orchestrator: orchestrator}
}

func (h *ClaimHandler) Register(app *fiber.App) {
	group := app.Group("adjudication/api/v1/claims")

	group.Post("/", h.SubmitClaim)     // POST /adjudication/api/v1/claims
	group.Get("/", h.ListClaims)       // GET  /adjudication/api/v1/claims
	group.Get("/:id", h.GetClaim)      // GET  /adjudication/api/v1/claims/:id
	group.Post("/:id/run", h.RunClaim) // POST /adjudication/api/v1/claims/:id/run
}

// SubmitClaim accepts a damage claim and queues it for adjudication. The
// response carries the case in its submitted state; callers poll GetClaim
// for the outcome.
func (h *ClaimHandler) SubmitClaim(c fiber.Ctx) error {
	userID := requesterID(c)
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			response.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	var req models.SubmitClaimRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			response.CreateErrorResponse("INVALID_BODY", "Invalid request body"))
	}

	claim, err := h.orchestrator.SubmitClaim(c.Context(), req, userID)
	if err != nil {
		slog.Error("Failed to submit claim", "requester_id", userID, "error", err)
		return respondError(c, err)
	}

	return c.Status(http.StatusAccepted).JSON(response.CreateSuccessResponse(models.ClaimResult(claim)))
}

// GetClaim returns the current state of a claim, including evidence,
// scores and the stage trail once adjudication has run.
func (h *ClaimHandler) GetClaim(c fiber.Ctx) error {
	userID := requesterID(c)
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			response.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	claimID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			response.CreateErrorResponse("INVALID_UUID", "Invalid claim ID format"))
	}

	claim, err := h.orchestrator.GetClaim(c.Context(), claimID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(response.CreateSuccessResponse(models.ClaimResult(claim)))
}

func (h *ClaimHandler) ListClaims(c fiber.Ctx) error {
	userID := requesterID(c)
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			response.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	limit, offset := pagination(c)
	claims, err := h.orchestrator.ListClaims(c.Context(), userID, limit, offset)
	if err != nil {
		slog.Error("Failed to list claims", "requester_id", userID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			response.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve claims"))
	}

	results := make([]models.CaseResult, 0, len(claims))
	for i := range claims {
		results = append(results, models.ClaimResult(&claims[i]))
	}

	return c.Status(http.StatusOK).JSON(response.CreateSuccessResponse(map[string]interface{}{
		"claims": results,
		"count":  len(results),
	}))
}

// RunClaim re-triggers adjudication for a stuck, non-terminal claim.
func (h *ClaimHandler) RunClaim(c fiber.Ctx) error {
	userID := requesterID(c)
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			response.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	claimID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			response.CreateErrorResponse("INVALID_UUID", "Invalid claim ID format"))
	}

	if _, err := h.orchestrator.GetClaim(c.Context(), claimID, userID); err != nil {
		return respondError(c, err)
	}

	claim, err := h.orchestrator.AdjudicateClaim(c.Context(), claimID)
	if err != nil {
		slog.Error("Failed to run claim adjudication", "claim_id", claimID, "error", err)
		return respondError(c, err)
	}

	return c.Status(http.StatusAccepted).JSON(response.CreateSuccessResponse(models.ClaimResult(claim)))
}
