package dto

import "time"

// CreateClientRequest payload.
type CreateClientRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Document string `json:"document"`
	Notes    string `json:"notes"`
	Active   *bool  `json:"active"`
}

// UpdateClientRequest payload. Absent fields are left unchanged.
type UpdateClientRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Document *string `json:"document"`
	Notes    *string `json:"notes"`
	Active   *bool   `json:"active"`
}

// ClientResponse payload.
type ClientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Document  string    `json:"document"`
	Notes     string    `json:"notes"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
