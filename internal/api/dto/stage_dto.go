package dto

// StageConfigPayload mirrors the per-stage switches.
type StageConfigPayload struct {
	Editable        bool `json:"editable"`
	NotifyAfterDays int  `json:"notify_after_days" validate:"gte=0"`
	Mandatory       bool `json:"mandatory"`
}

// CreateStageRequest payload.
type CreateStageRequest struct {
	Name        string             `json:"name" validate:"required"`
	Description string             `json:"description"`
	Color       string             `json:"color" validate:"omitempty,hexcolor"`
	Order       int                `json:"order" validate:"gte=0"`
	Active      *bool              `json:"active"`
	Config      StageConfigPayload `json:"config"`
	IsTerminal  bool               `json:"is_terminal"`
	AllowedNext []string           `json:"allowed_next"`
}

// UpdateStageRequest payload. Absent fields are left unchanged.
type UpdateStageRequest struct {
	Name        *string             `json:"name" validate:"omitempty,min=1"`
	Description *string             `json:"description"`
	Color       *string             `json:"color" validate:"omitempty,hexcolor"`
	Active      *bool               `json:"active"`
	Config      *StageConfigPayload `json:"config"`
	IsTerminal  *bool               `json:"is_terminal"`
	AllowedNext *[]string           `json:"allowed_next"`
}

// ReorderStagesRequest lists every stage id in its new order.
type ReorderStagesRequest struct {
	StageIDs []string `json:"stage_ids" validate:"required,min=1,dive,required"`
}

// StageResponse payload.
type StageResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Color       string             `json:"color"`
	Order       int                `json:"order"`
	Active      bool               `json:"active"`
	Config      StageConfigPayload `json:"config"`
	IsTerminal  bool               `json:"is_terminal"`
	AllowedNext []string           `json:"allowed_next"`
}
