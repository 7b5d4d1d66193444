package dto

import (
	"time"

	"github.com/spec-kit/processflow/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChangePasswordRequest payload for self-service password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// SetPasswordRequest payload for an administrator replacing a password.
type SetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Name            string      `json:"name" validate:"required"`
	Email           string      `json:"email" validate:"required"`
	Password        string      `json:"password" validate:"required,min=6"`
	Role            domain.Role `json:"role" validate:"required,oneof=admin supervisor operator reader"`
	Sector          string      `json:"sector"`
	Team            string      `json:"team"`
	Active          *bool       `json:"active"`
	LinkedClientIDs []string    `json:"linked_client_ids" validate:"omitempty,dive,required"`
}

// UpdateUserRequest payload. Absent fields are left unchanged.
type UpdateUserRequest struct {
	Name            *string      `json:"name" validate:"omitempty,min=1"`
	Email           *string      `json:"email" validate:"omitempty,min=1"`
	Role            *domain.Role `json:"role" validate:"omitempty,oneof=admin supervisor operator reader"`
	Sector          *string      `json:"sector"`
	Team            *string      `json:"team"`
	Active          *bool        `json:"active"`
	LinkedClientIDs *[]string    `json:"linked_client_ids"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID              string      `json:"id"`
	TenantID        string      `json:"tenant_id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Role            domain.Role `json:"role"`
	Sector          string      `json:"sector"`
	Team            string      `json:"team"`
	Active          bool        `json:"active"`
	LinkedClientIDs []string    `json:"linked_client_ids"`
	Permissions     []string    `json:"permissions,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	LastLoginAt     *time.Time  `json:"last_login_at"`
}
