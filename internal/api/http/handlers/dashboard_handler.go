package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/processflow/internal/service"
)

// DashboardHandler serves the aggregate metrics snapshot.
type DashboardHandler struct {
	metrics *service.MetricsService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(metrics *service.MetricsService) *DashboardHandler {
	return &DashboardHandler{metrics: metrics}
}

// Get GET /api/v1/dashboard.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	snapshot, err := h.metrics.Dashboard(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboardResponse(snapshot)})
}
