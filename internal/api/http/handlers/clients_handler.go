package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/processflow/internal/api/dto"
	"github.com/spec-kit/processflow/internal/service"
)

// ClientsHandler manages the customer registry.
type ClientsHandler struct {
	service  *service.ClientService
	validate *validator.Validate
}

// NewClientsHandler constructs handler.
func NewClientsHandler(clientService *service.ClientService, validate *validator.Validate) *ClientsHandler {
	return &ClientsHandler{service: clientService, validate: validate}
}

// List GET /api/v1/clients.
func (h *ClientsHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	clients, err := h.service.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.ClientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, clientResponse(&clients[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/v1/clients/:id.
func (h *ClientsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	client, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// Create POST /api/v1/clients.
func (h *ClientsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateClientRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	client, err := h.service.Create(c.UserContext(), actor, service.ClientInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Document: req.Document,
		Notes:    req.Notes,
		Active:   req.Active,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": clientResponse(client)})
}

// Update PATCH /api/v1/clients/:id.
func (h *ClientsHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateClientRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	client, err := h.service.Update(c.UserContext(), actor, c.Params("id"), service.ClientPatch{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Document: req.Document,
		Notes:    req.Notes,
		Active:   req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clientResponse(client)})
}

// Delete DELETE /api/v1/clients/:id.
func (h *ClientsHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
