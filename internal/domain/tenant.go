package domain

import "time"

// TenantLimits caps what a tenant may create.
type TenantLimits struct {
	AllowCustomization bool
	MaxUsers           int
	MaxOrders          int
}

// Tenant is an isolated customer organization.
type Tenant struct {
	ID             string
	Name           string
	Domain         string
	Logo           string
	PrimaryColor   string
	SecondaryColor string
	Active         bool
	CreatedAt      time.Time
	Limits         TenantLimits
}

// BackupFrequency enumerates automatic backup cadences.
type BackupFrequency string

const (
	BackupDaily   BackupFrequency = "daily"
	BackupWeekly  BackupFrequency = "weekly"
	BackupMonthly BackupFrequency = "monthly"
)

type NotificationSettings struct {
	EmailEnabled       bool
	PushEnabled        bool
	OverdueWarningDays int
	DueWarningDays     int
}

type BackupSettings struct {
	Automatic  bool
	Frequency  BackupFrequency
	KeepMonths int
}

type IntegrationSettings struct {
	WebhookURL  string
	SendUpdates bool
}

// Settings holds per-tenant system configuration.
type Settings struct {
	TenantID      string
	Notifications NotificationSettings
	Backup        BackupSettings
	Integration   IntegrationSettings
}
