package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/processflow/internal/api/dto"
	"github.com/spec-kit/processflow/internal/service"
)

// UsersHandler manages tenant users.
type UsersHandler struct {
	service  *service.UserService
	validate *validator.Validate
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, validate *validator.Validate) *UsersHandler {
	return &UsersHandler{service: userService, validate: validate}
}

// List GET /api/v1/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	users, err := h.service.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i], false))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/v1/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user, true)})
}

// Create POST /api/v1/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.service.Create(c.UserContext(), actor, service.UserInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Role:            req.Role,
		Sector:          req.Sector,
		Team:            req.Team,
		Active:          req.Active,
		LinkedClientIDs: req.LinkedClientIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(user, false)})
}

// Update PATCH /api/v1/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	user, err := h.service.Update(c.UserContext(), actor, c.Params("id"), service.UserPatch{
		Name:            req.Name,
		Email:           req.Email,
		Role:            req.Role,
		Sector:          req.Sector,
		Team:            req.Team,
		Active:          req.Active,
		LinkedClientIDs: req.LinkedClientIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user, false)})
}

// Delete DELETE /api/v1/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetPassword PUT /api/v1/users/:id/password.
func (h *UsersHandler) SetPassword(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SetPasswordRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	if err := h.service.SetPassword(c.UserContext(), actor, c.Params("id"), req.Password); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
