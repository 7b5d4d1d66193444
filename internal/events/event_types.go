package events

import (
	"time"

	"github.com/spec-kit/processflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderCreated EventType = "order_created"
	EventOrderUpdated EventType = "order_updated"
	EventOrderDeleted EventType = "order_deleted"
	EventOrderMoved   EventType = "order_moved"

	EventUserCreated     EventType = "user_created"
	EventUserUpdated     EventType = "user_updated"
	EventUserDeleted     EventType = "user_deleted"
	EventUserLoggedIn    EventType = "user_logged_in"
	EventPasswordChanged EventType = "password_changed"

	EventStageCreated    EventType = "stage_created"
	EventStageUpdated    EventType = "stage_updated"
	EventStageDeleted    EventType = "stage_deleted"
	EventStagesReordered EventType = "stages_reordered"

	EventClientCreated EventType = "client_created"
	EventClientUpdated EventType = "client_updated"
	EventClientDeleted EventType = "client_deleted"

	EventChatMessageSent EventType = "chat_message_sent"
	EventSettingsUpdated EventType = "settings_updated"
	EventBrandingUpdated EventType = "branding_updated"
	EventReportGenerated EventType = "report_generated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Name   string      `json:"name"`
	Role   domain.Role `json:"role"`
}

// ActorOf builds the actor for a user.
func ActorOf(user *domain.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{UserID: user.ID, Name: user.Name, Role: user.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TenantID   string      `json:"tenant_id"`
	ResourceID string      `json:"resource_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload,omitempty"`
}

// OrderMovedPayload payload.
type OrderMovedPayload struct {
	OrderNumber     string `json:"order_number"`
	PreviousStageID string `json:"previous_stage_id"`
	NewStageID      string `json:"new_stage_id"`
	NewStageName    string `json:"new_stage_name"`
	Terminal        bool   `json:"terminal"`
	Comment         string `json:"comment,omitempty"`
	Automatic       bool   `json:"automatic"`
	MovementID      string `json:"movement_id"`
}

// OrderChangedPayload payload for create/update/delete.
type OrderChangedPayload struct {
	OrderNumber string `json:"order_number"`
	ClientID    string `json:"client_id"`
	StageID     string `json:"stage_id"`
}

// ChatMessagePayload payload.
type ChatMessagePayload struct {
	ClientID    string            `json:"client_id"`
	Sender      domain.ChatSender `json:"sender"`
	BodyPreview string            `json:"body_preview"`
}

// NamedPayload carries the display name of the touched resource.
type NamedPayload struct {
	Name string `json:"name"`
}
