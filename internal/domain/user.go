package domain

import (
	"slices"
	"time"
)

// User is an authenticated member of a tenant.
type User struct {
	ID              string
	TenantID        string
	Name            string
	Email           string
	PasswordHash    string
	Role            Role
	Sector          string
	Team            string
	Active          bool
	LinkedClientIDs []string
	CreatedAt       time.Time
	LastLoginAt     *time.Time
}

// IsLinkedTo reports whether a reader may see the given client.
func (u *User) IsLinkedTo(clientID string) bool {
	return slices.Contains(u.LinkedClientIDs, clientID)
}

// Clone returns a deep copy safe to hand outside a store.
func (u *User) Clone() *User {
	cp := *u
	cp.LinkedClientIDs = slices.Clone(u.LinkedClientIDs)
	if u.LastLoginAt != nil {
		ts := *u.LastLoginAt
		cp.LastLoginAt = &ts
	}
	return &cp
}
