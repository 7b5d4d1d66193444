package domain

import "time"

// Client is a customer that orders are placed for.
type Client struct {
	ID        string
	TenantID  string
	Name      string
	Email     string
	Phone     string
	Address   string
	Document  string
	Notes     string
	Active    bool
	CreatedAt time.Time
}
