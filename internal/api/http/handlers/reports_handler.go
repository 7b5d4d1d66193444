package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/processflow/internal/api/dto"
	"github.com/spec-kit/processflow/internal/report"
	"github.com/spec-kit/processflow/internal/repository"
	"github.com/spec-kit/processflow/internal/service"
)

// ReportsHandler renders downloadable reports.
type ReportsHandler struct {
	service  *service.ReportService
	validate *validator.Validate
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService, validate *validator.Validate) *ReportsHandler {
	return &ReportsHandler{service: reportService, validate: validate}
}

// Generate POST /api/v1/reports.
func (h *ReportsHandler) Generate(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.ReportRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	doc, err := h.service.Generate(c.UserContext(), actor, service.ReportRequest{
		Kind:   report.Kind(req.Kind),
		Format: report.Format(req.Format),
		Filter: repository.OrderFilter{
			StageIDs: req.StageIDs,
			Sellers:  req.Sellers,
			SaleFrom: req.From,
			SaleTo:   req.To,
		},
	})
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.Send(doc.Body)
}
