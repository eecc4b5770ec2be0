package handlers

import (
	"log/slog"
	"net/http"

	"adjudication-service/internal/services"
	"adjudication-service/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type DashboardHandler struct {
	statsService *services.StatsService
}

func NewDashboardHandler(statsService *services.StatsService) *DashboardHandler {
	return &DashboardHandler{statsService: statsService}
}

func (h *DashboardHandler) Register(app *fiber.App) {
	group := app.Group("adjudication/api/v1")

	group.Get("/stats", h.GetStats) // GET /adjudication/api/v1/stats
}

// GetStats returns pipeline throughput aggregates for the operator
// dashboard.
func (h *DashboardHandler) GetStats(c fiber.Ctx) error {
	stats, err := h.statsService.GetDashboardStats(c.Context())
	if err != nil {
		slog.Error("Failed to get dashboard stats", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			response.CreateErrorResponse("STATS_FAILED", "Failed to gather dashboard stats"))
	}

	return c.Status(http.StatusOK).JSON(response.CreateSuccessResponse(stats))
}
