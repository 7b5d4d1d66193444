package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/processflow/internal/api/dto"
	"github.com/spec-kit/processflow/internal/service"
)

// ActivityHandler lists recent domain events.
type ActivityHandler struct {
	service *service.ActivityService
}

// NewActivityHandler constructs handler.
func NewActivityHandler(activity *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: activity}
}

// Recent GET /api/v1/activity?limit=N.
func (h *ActivityHandler) Recent(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	recent, err := h.service.Recent(c.UserContext(), actor, parseInt(c.Query("limit"), 0))
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(recent))
	for _, e := range recent {
		items = append(items, activityResponse(e))
	}
	return c.JSON(fiber.Map{"data": items})
}
