package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/processflow/internal/domain"
)

// CreateOrderRequest payload.
type CreateOrderRequest struct {
	Number            string          `json:"number"`
	ClientID          string          `json:"client_id" validate:"required"`
	Seller            string          `json:"seller"`
	SaleDate          *time.Time      `json:"sale_date"`
	FirstPaymentDate  *time.Time      `json:"first_payment_date"`
	ExpectedDelivery  *time.Time      `json:"expected_delivery"`
	Product           string          `json:"product"`
	Quantity          int             `json:"quantity" validate:"gte=0"`
	Packaging         string          `json:"packaging"`
	FreightType       string          `json:"freight_type"`
	StageID           string          `json:"stage_id"`
	Location          domain.Location `json:"location" validate:"omitempty,oneof=patio salao rua expedicao entregue"`
	Courtesies        []string        `json:"courtesies"`
	Shortages         []string        `json:"shortages"`
	Notes             string          `json:"notes"`
	Priority          domain.Priority `json:"priority" validate:"omitempty,oneof=baixa normal alta urgente"`
	TotalValue        decimal.Decimal `json:"total_value"`
	ResponsibleUserID string          `json:"responsible_user_id"`
	Tags              []string        `json:"tags"`
}

// UpdateOrderRequest payload. Stage and delivery date are changed by moves only.
type UpdateOrderRequest struct {
	ClientID          *string          `json:"client_id" validate:"omitempty,min=1"`
	Seller            *string          `json:"seller"`
	SaleDate          *time.Time       `json:"sale_date"`
	FirstPaymentDate  *time.Time       `json:"first_payment_date"`
	ExpectedDelivery  *time.Time       `json:"expected_delivery"`
	Product           *string          `json:"product"`
	Quantity          *int             `json:"quantity" validate:"omitempty,gte=0"`
	Packaging         *string          `json:"packaging"`
	FreightType       *string          `json:"freight_type"`
	Location          *domain.Location `json:"location" validate:"omitempty,oneof=patio salao rua expedicao entregue"`
	Courtesies        *[]string        `json:"courtesies"`
	Shortages         *[]string        `json:"shortages"`
	Notes             *string          `json:"notes"`
	Priority          *domain.Priority `json:"priority" validate:"omitempty,oneof=baixa normal alta urgente"`
	TotalValue        *decimal.Decimal `json:"total_value"`
	ResponsibleUserID *string          `json:"responsible_user_id"`
	Tags              *[]string        `json:"tags"`
}

// MoveOrderRequest payload.
type MoveOrderRequest struct {
	StageID  string           `json:"stage_id" validate:"required"`
	Comment  string           `json:"comment" validate:"max=1000"`
	Location *domain.Location `json:"location" validate:"omitempty,oneof=patio salao rua expedicao entregue"`
}

// MovementResponse is one history entry.
type MovementResponse struct {
	ID              string          `json:"id"`
	PreviousStageID string          `json:"previous_stage_id,omitempty"`
	NewStageID      string          `json:"new_stage_id"`
	ActorID         string          `json:"actor_id"`
	ActorName       string          `json:"actor_name"`
	At              time.Time       `json:"at"`
	Comment         string          `json:"comment,omitempty"`
	PreviousLoc     domain.Location `json:"previous_location,omitempty"`
	NewLoc          domain.Location `json:"new_location,omitempty"`
	Automatic       bool            `json:"automatic"`
}

// OrderResponse payload.
type OrderResponse struct {
	ID                string             `json:"id"`
	Number            string             `json:"number"`
	ClientID          string             `json:"client_id"`
	ClientName        string             `json:"client_name"`
	Seller            string             `json:"seller"`
	SaleDate          time.Time          `json:"sale_date"`
	FirstPaymentDate  *time.Time         `json:"first_payment_date"`
	ExpectedDelivery  time.Time          `json:"expected_delivery"`
	DeliveredAt       *time.Time         `json:"delivered_at"`
	Product           string             `json:"product"`
	Quantity          int                `json:"quantity"`
	Packaging         string             `json:"packaging"`
	FreightType       string             `json:"freight_type"`
	CurrentStageID    string             `json:"current_stage_id"`
	Location          domain.Location    `json:"location"`
	Courtesies        []string           `json:"courtesies"`
	Shortages         []string           `json:"shortages"`
	Notes             string             `json:"notes"`
	Priority          domain.Priority    `json:"priority"`
	TotalValue        decimal.Decimal    `json:"total_value"`
	ResponsibleUserID string             `json:"responsible_user_id"`
	Tags              []string           `json:"tags"`
	Overdue           bool               `json:"overdue"`
	History           []MovementResponse `json:"history,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// OrderListResponse wraps a page of orders.
type OrderListResponse struct {
	Items    []OrderResponse `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}
