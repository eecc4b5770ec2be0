package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"adjudication-service/internal/database/minio"
	"adjudication-service/internal/models"
	"adjudication-service/internal/services"
	"adjudication-service/pkg/response"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const maxDocumentBytes = 10 << 20 // 10 MiB

type VerificationHandler struct {
	orchestrator *services.AdjudicationOrchestrator
	storage      *minio.MinioClient
}

func NewVerificationHandler(orchestrator *services.AdjudicationOrchestrator, storage *minio.MinioClient) *VerificationHandler {
	return &VerificationHandler{
		orchestrator: orchestrator,
		storage:      storage,
	}
}

func (h *VerificationHandler) Register(app *fiber.App) {
	group := app.Group("adjudication/api/v1/verifications")

	group.Post("/", h.SubmitVerification)               // POST /adjudication/api/v1/verifications
	group.Get("/", h.ListVerifications)                 // GET  /adjudication/api/v1/verifications
	group.Get("/:id", h.GetVerification)                // GET  /adjudication/api/v1/verifications/:id
	group.Post("/:id/resubmit", h.ResubmitVerification) // POST /adjudication/api/v1/verifications/:id/resubmit
}

// SubmitVerification accepts a multipart form carrying the land document
// scan plus the fields the requester claims, stores the document, and
// queues the identity verification run.
func (h *VerificationHandler) SubmitVerification(c fiber.Ctx) error {
	userID := requesterID(c)
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			response.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	req, err := parseVerificationForm(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			response.CreateErrorResponse("INVALID_FORM", err.Error()))
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			response.CreateErrorResponse("MISSING_DOCUMENT", "A document upload is required"))
	}
	if fileHeader.Size > maxDocumentBytes {
		return c.Status(http.StatusRequestEntityTooLarge).JSON(
			response.CreateErrorResponse("DOCUMENT_TOO_LARGE", "Document exceeds the 10MB limit"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			response.CreateErrorResponse("INVALID_DOCUMENT", "Failed to read uploaded document"))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxDocumentBytes))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			response.CreateErrorResponse("INVALID_DOCUMENT", "Failed to read uploaded document"))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	documentKey := fmt.Sprintf("%s/%s/%s", userID, req.PropertyID, uuid.NewString())
	if err := h.storage.PutDocument(c.Context(), documentKey, data, contentType); err != nil {
		slog.Error("Failed to store verification document", "requester_id", userID, "error", err)
		return c.Status(http.StatusBadGateway).JSON(
			response.CreateErrorResponse("DOCUMENT_STORE_FAILED", "Failed to store uploaded document"))
	}

	verification, err := h.orchestrator.SubmitVerification(c.Context(), req, userID, documentKey)
	if err != nil {
		slog.Error("Failed to submit verification", "requester_id", userID, "error", err)
		return respondError(c, err)
	}

	return c.Status(http.StatusAccepted).JSON(
		response.CreateSuccessResponse(models.VerificationResult(verification)))
}

func (h *VerificationHandler) GetVerification(c fiber.Ctx) error {
	userID := requesterID(c)
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			response.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			response.CreateErrorResponse("INVALID_UUID", "Invalid verification ID format"))
	}

	verification, err := h.orchestrator.GetVerification(c.Context(), id, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(http.StatusOK).JSON(
		response.CreateSuccessResponse(models.VerificationResult(verification)))
}

func (h *VerificationHandler) ListVerifications(c fiber.Ctx) error {
	userID := requesterID(c)
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			response.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	limit, offset := pagination(c)
	verifications, err := h.orchestrator.ListVerifications(c.Context(), userID, limit, offset)
	if err != nil {
		slog.Error("Failed to list verifications", "requester_id", userID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			response.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve verification requests"))
	}

	results := make([]models.CaseResult, 0, len(verifications))
	for i := range verifications {
		results = append(results, models.VerificationResult(&verifications[i]))
	}

	return c.Status(http.StatusOK).JSON(response.CreateSuccessResponse(map[string]interface{}{
		"verifications": results,
		"count":         len(results),
	}))
}

// ResubmitVerification opens a fresh attempt from a failed verification.
// The stored document and submitted fields carry over; the failed record
// is kept for audit.
func (h *VerificationHandler) ResubmitVerification(c fiber.Ctx) error {
	userID := requesterID(c)
	if userID == "" {
		return c.Status(http.StatusUnauthorized).JSON(
			response.CreateErrorResponse("UNAUTHORIZED", "User ID is required"))
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			response.CreateErrorResponse("INVALID_UUID", "Invalid verification ID format"))
	}

	attempt, err := h.orchestrator.ResubmitVerification(c.Context(), id, userID)
	if err != nil {
		slog.Error("Failed to resubmit verification", "verification_id", id, "error", err)
		return respondError(c, err)
	}

	return c.Status(http.StatusAccepted).JSON(
		response.CreateSuccessResponse(models.VerificationResult(attempt)))
}

func parseVerificationForm(c fiber.Ctx) (models.SubmitVerificationRequest, error) {
	var req models.SubmitVerificationRequest

	propertyID, err := uuid.Parse(c.FormValue("property_id"))
	if err != nil {
		return req, fmt.Errorf("property_id must be a valid UUID")
	}

	area := 0.0
	if raw := c.FormValue("area_hectares"); raw != "" {
		area, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("area_hectares must be numeric")
		}
	}

	req = models.SubmitVerificationRequest{
		PropertyID:   propertyID,
		DocumentType: models.DocumentType(c.FormValue("document_type")),
		Submitted: models.SubmittedFields{
			OwnerName:    c.FormValue("owner_name"),
			SurveyNumber: c.FormValue("survey_number"),
			AreaHectares: area,
			Village:      c.FormValue("village"),
			District:     c.FormValue("district"),
		},
	}
	return req, nil
}
