package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/processflow/internal/api/dto"
	"github.com/spec-kit/processflow/internal/service"
)

// ChatHandler exposes client conversations.
type ChatHandler struct {
	service  *service.ChatService
	validate *validator.Validate
}

// NewChatHandler constructs handler.
func NewChatHandler(chatService *service.ChatService, validate *validator.Validate) *ChatHandler {
	return &ChatHandler{service: chatService, validate: validate}
}

// Conversations GET /api/v1/chat/conversations.
func (h *ChatHandler) Conversations(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	convs, err := h.service.Conversations(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.ConversationResponse, 0, len(convs))
	for i := range convs {
		items = append(items, conversationResponse(&convs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkConversationRead POST /api/v1/chat/conversations/:id/read.
func (h *ChatHandler) MarkConversationRead(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	conv, err := h.service.MarkConversationRead(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": conversationResponse(conv)})
}

// Messages GET /api/v1/chat/clients/:clientId/messages.
func (h *ChatHandler) Messages(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	msgs, err := h.service.Messages(c.UserContext(), actor, c.Params("clientId"))
	if err != nil {
		return err
	}
	items := make([]dto.ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, chatMessageResponse(&msgs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Send POST /api/v1/chat/clients/:clientId/messages.
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	msg, err := h.service.Send(c.UserContext(), actor, c.Params("clientId"), req.Body, req.Sender)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": chatMessageResponse(msg)})
}

// MarkMessageRead POST /api/v1/chat/messages/:id/read.
func (h *ChatHandler) MarkMessageRead(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	msg, err := h.service.MarkMessageRead(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": chatMessageResponse(msg)})
}
