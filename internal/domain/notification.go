package domain

import "time"

// NotificationKind classifies why a notification was raised.
type NotificationKind string

const (
	NotificationOverdue NotificationKind = "overdue"
	NotificationStalled NotificationKind = "stalled"
	NotificationDue     NotificationKind = "due"
	NotificationSystem  NotificationKind = "system"
)

// Notification is addressed to a single user.
type Notification struct {
	ID        string
	TenantID  string
	Kind      NotificationKind
	Title     string
	Message   string
	OrderID   string
	UserID    string
	Read      bool
	CreatedAt time.Time
}
