package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/processflow/internal/api/dto"
	"github.com/spec-kit/processflow/internal/service"
)

// TenantHandler exposes branding and system settings.
type TenantHandler struct {
	service  *service.TenantService
	validate *validator.Validate
}

// NewTenantHandler constructs handler.
func NewTenantHandler(tenantService *service.TenantService, validate *validator.Validate) *TenantHandler {
	return &TenantHandler{service: tenantService, validate: validate}
}

// Get GET /api/v1/tenant.
func (h *TenantHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	tenant, err := h.service.Get(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// UpdateBranding PATCH /api/v1/tenant/branding.
func (h *TenantHandler) UpdateBranding(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateBrandingRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	tenant, err := h.service.UpdateBranding(c.UserContext(), actor, service.BrandingPatch{
		Name:           req.Name,
		Logo:           req.Logo,
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tenantResponse(tenant)})
}

// Settings GET /api/v1/settings.
func (h *TenantHandler) Settings(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	settings, err := h.service.Settings(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsPayload(settings)})
}

// UpdateSettings PUT /api/v1/settings.
func (h *TenantHandler) UpdateSettings(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SettingsPayload
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	settings, err := h.service.UpdateSettings(c.UserContext(), actor, settingsFromPayload(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settingsPayload(settings)})
}
