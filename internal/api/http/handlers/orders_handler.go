package handlers

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/processflow/internal/api/dto"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/repository"
	"github.com/spec-kit/processflow/internal/service"
)

// OrdersHandler exposes the order pipeline.
type OrdersHandler struct {
	service  *service.OrderService
	validate *validator.Validate
	now      func() time.Time
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService, validate *validator.Validate) *OrdersHandler {
	return &OrdersHandler{service: orderService, validate: validate, now: time.Now}
}

// List GET /api/v1/orders.
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	filter, page, pageSize := parseOrderQuery(c)
	orders, total, err := h.service.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	now := h.now()
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, orderResponse(&orders[i], now, false))
	}
	return c.JSON(fiber.Map{"data": dto.OrderListResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}})
}

// Get GET /api/v1/orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	order, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order, h.now(), true)})
}

// Create POST /api/v1/orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateOrderRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	input := service.OrderInput{
		Number:            req.Number,
		ClientID:          req.ClientID,
		Seller:            req.Seller,
		FirstPaymentDate:  req.FirstPaymentDate,
		Product:           req.Product,
		Quantity:          req.Quantity,
		Packaging:         req.Packaging,
		FreightType:       req.FreightType,
		StageID:           req.StageID,
		Location:          req.Location,
		Courtesies:        req.Courtesies,
		Shortages:         req.Shortages,
		Notes:             req.Notes,
		Priority:          req.Priority,
		TotalValue:        req.TotalValue,
		ResponsibleUserID: req.ResponsibleUserID,
		Tags:              req.Tags,
	}
	if req.SaleDate != nil {
		input.SaleDate = *req.SaleDate
	}
	if req.ExpectedDelivery != nil {
		input.ExpectedDelivery = *req.ExpectedDelivery
	}
	order, err := h.service.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": orderResponse(order, h.now(), true)})
}

// Update PATCH /api/v1/orders/:id.
func (h *OrdersHandler) Update(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateOrderRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	order, err := h.service.Update(c.UserContext(), actor, c.Params("id"), service.OrderPatch{
		ClientID:          req.ClientID,
		Seller:            req.Seller,
		SaleDate:          req.SaleDate,
		FirstPaymentDate:  req.FirstPaymentDate,
		ExpectedDelivery:  req.ExpectedDelivery,
		Product:           req.Product,
		Quantity:          req.Quantity,
		Packaging:         req.Packaging,
		FreightType:       req.FreightType,
		Location:          req.Location,
		Courtesies:        req.Courtesies,
		Shortages:         req.Shortages,
		Notes:             req.Notes,
		Priority:          req.Priority,
		TotalValue:        req.TotalValue,
		ResponsibleUserID: req.ResponsibleUserID,
		Tags:              req.Tags,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order, h.now(), false)})
}

// Delete DELETE /api/v1/orders/:id.
func (h *OrdersHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Move POST /api/v1/orders/:id/move.
func (h *OrdersHandler) Move(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.MoveOrderRequest
	if err := bind(c, h.validate, &req); err != nil {
		return err
	}
	order, err := h.service.Move(c.UserContext(), actor, c.Params("id"), service.MoveInput{
		TargetStageID: req.StageID,
		Comment:       req.Comment,
		Location:      req.Location,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order, h.now(), true)})
}

// History GET /api/v1/orders/:id/history. ?source=archive reads the durable copy.
func (h *OrdersHandler) History(c *fiber.Ctx) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var records []domain.MovementRecord
	if c.Query("source") == "archive" {
		records, err = h.service.ArchivedHistory(c.UserContext(), actor, c.Params("id"))
	} else {
		records, err = h.service.History(c.UserContext(), actor, c.Params("id"))
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": movementResponses(records)})
}

func parseOrderQuery(c *fiber.Ctx) (repository.OrderFilter, int, int) {
	filter := repository.OrderFilter{
		SearchTerm:    strings.TrimSpace(c.Query("search")),
		StageIDs:      splitQuery(c.Query("stage")),
		Sellers:       splitQuery(c.Query("seller")),
		Tags:          splitQuery(c.Query("tag")),
		ClientIDs:     splitQuery(c.Query("client")),
		ResponsibleID: c.Query("responsible"),
		SaleFrom:      parseTime(c.Query("sale_from")),
		SaleTo:        parseTime(c.Query("sale_to")),
	}
	for _, loc := range splitQuery(c.Query("location")) {
		filter.Locations = append(filter.Locations, domain.Location(loc))
	}
	for _, p := range splitQuery(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.Priority(p))
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, page, pageSize
}
