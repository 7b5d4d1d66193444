package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/processflow/internal/domain"
)

// NotificationResponse payload.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Kind      domain.NotificationKind `json:"kind"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	OrderID   string                  `json:"order_id,omitempty"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"created_at"`
}

// SendMessageRequest payload. An empty sender is derived from the caller's role.
type SendMessageRequest struct {
	Body   string            `json:"body" validate:"required,max=4000"`
	Sender domain.ChatSender `json:"sender" validate:"omitempty,oneof=client admin"`
}

// ChatMessageResponse payload.
type ChatMessageResponse struct {
	ID         string            `json:"id"`
	ClientID   string            `json:"client_id"`
	ClientName string            `json:"client_name"`
	Sender     domain.ChatSender `json:"sender"`
	Body       string            `json:"body"`
	SentAt     time.Time         `json:"sent_at"`
	Read       bool              `json:"read"`
}

// ConversationResponse payload.
type ConversationResponse struct {
	ID            string    `json:"id"`
	ClientID      string    `json:"client_id"`
	ClientName    string    `json:"client_name"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
	Active        bool      `json:"active"`
}

// DashboardResponse payload.
type DashboardResponse struct {
	TotalOrders       int                `json:"total_orders"`
	ActiveOrders      int                `json:"active_orders"`
	CompletedOrders   int                `json:"completed_orders"`
	OverdueOrders     int                `json:"overdue_orders"`
	MonthRevenue      decimal.Decimal    `json:"month_revenue"`
	AverageCycleDays  float64            `json:"average_cycle_days"`
	LeadConversionPct float64            `json:"lead_conversion_pct"`
	Bottlenecks       []BottleneckEntry  `json:"bottlenecks"`
	Targets           []StageTargetEntry `json:"targets"`
	ComputedAt        time.Time          `json:"computed_at"`
}

// BottleneckEntry is the load of one stage.
type BottleneckEntry struct {
	StageID     string  `json:"stage_id"`
	StageName   string  `json:"stage_name"`
	Count       int     `json:"count"`
	AverageDays float64 `json:"average_days"`
}

// StageTargetEntry compares a stage's load against its goal.
type StageTargetEntry struct {
	StageID string  `json:"stage_id"`
	Target  int     `json:"target"`
	Current int     `json:"current"`
	Percent float64 `json:"percent"`
}

// TenantResponse payload.
type TenantResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Domain             string    `json:"domain"`
	Logo               string    `json:"logo"`
	PrimaryColor       string    `json:"primary_color"`
	SecondaryColor     string    `json:"secondary_color"`
	Active             bool      `json:"active"`
	AllowCustomization bool      `json:"allow_customization"`
	MaxUsers           int       `json:"max_users"`
	MaxOrders          int       `json:"max_orders"`
	CreatedAt          time.Time `json:"created_at"`
}

// UpdateBrandingRequest payload. Absent fields are left unchanged.
type UpdateBrandingRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1"`
	Logo           *string `json:"logo"`
	PrimaryColor   *string `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor *string `json:"secondary_color" validate:"omitempty,hexcolor"`
}

// SettingsPayload is both the request and the response of the settings endpoints.
type SettingsPayload struct {
	Notifications struct {
		EmailEnabled       bool `json:"email_enabled"`
		PushEnabled        bool `json:"push_enabled"`
		OverdueWarningDays int  `json:"overdue_warning_days" validate:"gte=0"`
		DueWarningDays     int  `json:"due_warning_days" validate:"gte=0"`
	} `json:"notifications"`
	Backup struct {
		Automatic  bool                   `json:"automatic"`
		Frequency  domain.BackupFrequency `json:"frequency" validate:"required,oneof=daily weekly monthly"`
		KeepMonths int                    `json:"keep_months" validate:"gte=0"`
	} `json:"backup"`
	Integration struct {
		WebhookURL  string `json:"webhook_url" validate:"omitempty,url"`
		SendUpdates bool   `json:"send_updates"`
	} `json:"integration"`
}

// ReportRequest selects a report. Filters narrow the orders covered.
type ReportRequest struct {
	Kind     string     `json:"kind" validate:"required,oneof=processos vendas gargalos"`
	Format   string     `json:"format" validate:"omitempty,oneof=pdf csv"`
	StageIDs []string   `json:"stage_ids"`
	Sellers  []string   `json:"sellers"`
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`
}

// ActivityResponse is one recorded domain event.
type ActivityResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ResourceID string    `json:"resource_id,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	ActorName  string    `json:"actor_name,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload,omitempty"`
}
