package handlers

import (
	"errors"
	"net/http"

	"adjudication-service/internal/models"
	"adjudication-service/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// statusForError maps the adjudication error categories onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrDuplicateSubmission):
		return http.StatusConflict
	case errors.Is(err, models.ErrEvidenceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c fiber.Ctx, err error) error {
	return c.Status(statusForError(err)).JSON(
		response.CreateErrorResponse(models.ReasonCode(err), models.UserMessage(err)))
}

// requesterID pulls the authenticated user id injected by the gateway.
func requesterID(c fiber.Ctx) string {
	return c.Get("X-User-ID")
}

func pagination(c fiber.Ctx) (limit, offset int) {
	limit = fiber.Query[int](c, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset = fiber.Query[int](c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
