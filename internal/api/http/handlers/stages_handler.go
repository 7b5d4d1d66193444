package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/processflow/internal/api/dto"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/service"
)

// StagesHandler manages the pipeline definition.
type StagesHandler struct {
	service  *service.StageService
	validate *validator.Validate
}

// NewStagesHandler constructs handler.
func NewStagesHandler(stageService *service.StageService, validate *validator.Validate) *StagesHandler {
	return &StagesHandler{service: stageService, validate: validate}
}

// List GET /api/v1/stages.
func (h *StagesHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	stages, err := h.service.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stageList(stages)})
}

// Create POST /api/v1/stages.
func (h *StagesHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateStageRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	stage, err := h.service.Create(c.UserContext(), actor, service.StageInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Order:       req.Order,
		Active:      req.Active,
		Config:      stageConfig(req.Config),
		IsTerminal:  req.IsTerminal,
		AllowedNext: req.AllowedNext,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": stageResponse(stage)})
}

// Update PATCH /api/v1/stages/:id.
func (h *StagesHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStageRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	patch := service.StagePatch{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Active:      req.Active,
		IsTerminal:  req.IsTerminal,
		AllowedNext: req.AllowedNext,
	}
	if req.Config != nil {
		cfg := stageConfig(*req.Config)
		patch.Config = &cfg
	}
	stage, err := h.service.Update(c.UserContext(), actor, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stageResponse(stage)})
}

// Delete DELETE /api/v1/stages/:id.
func (h *StagesHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reorder PUT /api/v1/stages/order.
func (h *StagesHandler) Reorder(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ReorderStagesRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	stages, err := h.service.Reorder(c.UserContext(), actor, req.StageIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stageList(stages)})
}

func stageConfig(p dto.StageConfigPayload) domain.StageConfig {
	return domain.StageConfig{
		Editable:        p.Editable,
		NotifyAfterDays: p.NotifyAfterDays,
		Mandatory:       p.Mandatory,
	}
}
