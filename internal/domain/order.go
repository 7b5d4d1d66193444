package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Priority enumerates order urgency.
type Priority string

const (
	PriorityLow    Priority = "baixa"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "alta"
	PriorityUrgent Priority = "urgente"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Location is where the physical goods of an order currently are.
type Location string

const (
	LocationYard      Location = "patio"
	LocationHall      Location = "salao"
	LocationStreet    Location = "rua"
	LocationDispatch  Location = "expedicao"
	LocationDelivered Location = "entregue"
)

// Valid reports whether l is a known location.
func (l Location) Valid() bool {
	switch l {
	case LocationYard, LocationHall, LocationStreet, LocationDispatch, LocationDelivered:
		return true
	}
	return false
}

// MovementRecord is an immutable audit entry of a stage transition.
type MovementRecord struct {
	ID              string
	OrderID         string
	PreviousStageID string
	NewStageID      string
	ActorID         string
	ActorName       string
	At              time.Time
	Comment         string
	PreviousLoc     Location
	NewLoc          Location
	Automatic       bool
}

// Order is a sales/production unit tracked through the pipeline.
type Order struct {
	ID                string
	TenantID          string
	Number            string
	ClientID          string
	ClientName        string
	Seller            string
	SaleDate          time.Time
	FirstPaymentDate  *time.Time
	ExpectedDelivery  time.Time
	DeliveredAt       *time.Time
	Product           string
	Quantity          int
	Packaging         string
	FreightType       string
	CurrentStageID    string
	Location          Location
	Courtesies        []string
	Shortages         []string
	Notes             string
	Priority          Priority
	TotalValue        decimal.Decimal
	ResponsibleUserID string
	History           []MovementRecord
	Tags              []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LastMovement returns the most recent history entry.
func (o *Order) LastMovement() (MovementRecord, bool) {
	if len(o.History) == 0 {
		return MovementRecord{}, false
	}
	return o.History[len(o.History)-1], true
}

// StageSince returns when the order entered its current stage.
func (o *Order) StageSince() time.Time {
	if last, ok := o.LastMovement(); ok {
		return last.At
	}
	return o.CreatedAt
}

// IsOverdue reports whether the expected delivery passed without a delivery.
func (o *Order) IsOverdue(now time.Time) bool {
	return o.DeliveredAt == nil && !o.ExpectedDelivery.IsZero() && o.ExpectedDelivery.Before(now)
}

// Clone returns a deep copy safe to hand outside a store.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Courtesies = slices.Clone(o.Courtesies)
	cp.Shortages = slices.Clone(o.Shortages)
	cp.History = slices.Clone(o.History)
	cp.Tags = slices.Clone(o.Tags)
	if o.FirstPaymentDate != nil {
		ts := *o.FirstPaymentDate
		cp.FirstPaymentDate = &ts
	}
	if o.DeliveredAt != nil {
		ts := *o.DeliveredAt
		cp.DeliveredAt = &ts
	}
	return &cp
}
