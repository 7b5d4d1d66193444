package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/processflow/internal/api/dto"
	"github.com/spec-kit/processflow/internal/service"
)

// NotificationsHandler serves the caller's inbox.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// List GET /api/v1/notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := h.service.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	unread := 0
	out := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		if !items[i].Read {
			unread++
		}
		out = append(out, notificationResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out, "meta": fiber.Map{"unread": unread}})
}

// MarkRead POST /api/v1/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.service.MarkRead(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationResponse(n)})
}

// MarkAllRead POST /api/v1/notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	count, err := h.service.MarkAllRead(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": count}})
}
