package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// TenantService exposes the tenant profile, branding and system settings.
type TenantService struct {
	mu         sync.Mutex
	tenants    repository.TenantRepository
	dispatcher events.Dispatcher
	now        Clock
}

// TenantDependencies bundles the tenant service collaborators.
type TenantDependencies struct {
	TenantRepo repository.TenantRepository
	Dispatcher events.Dispatcher
	Clock      Clock
}

// BrandingPatch carries optional branding changes.
type BrandingPatch struct {
	Name           *string
	Logo           *string
	PrimaryColor   *string
	SecondaryColor *string
}

// NewTenantService constructs the service.
func NewTenantService(deps TenantDependencies) *TenantService {
	return &TenantService{
		tenants:    deps.TenantRepo,
		dispatcher: deps.Dispatcher,
		now:        clockOrNow(deps.Clock),
	}
}

// Get returns the actor's tenant.
func (s *TenantService) Get(ctx context.Context, actor *domain.User) (*domain.Tenant, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	tenant, err := s.tenants.GetByID(ctx, actor.TenantID)
	if err != nil {
		return nil, mapRepoErr(err, "tenant", actor.TenantID)
	}
	return tenant, nil
}

// UpdateBranding changes the tenant's display identity. Tenants without the
// customization allowance are rejected.
func (s *TenantService) UpdateBranding(ctx context.Context, actor *domain.User, patch BrandingPatch) (*domain.Tenant, error) {
	if err := authorize(actor, auth.PermBrandingEdit); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant, err := s.tenants.GetByID(ctx, actor.TenantID)
	if err != nil {
		return nil, mapRepoErr(err, "tenant", actor.TenantID)
	}
	if !tenant.Limits.AllowCustomization {
		return nil, apperrors.NewForbidden("tenant plan does not allow customization")
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperrors.NewValidationError("name required", nil)
		}
		tenant.Name = strings.TrimSpace(*patch.Name)
	}
	assignTrimmed(&tenant.Logo, patch.Logo)
	for field, val := range map[string]*string{"primary_color": patch.PrimaryColor, "secondary_color": patch.SecondaryColor} {
		if val != nil && !hexColor.MatchString(strings.TrimSpace(*val)) {
			return nil, apperrors.NewValidationError("invalid color", map[string]any{"field": field, "value": *val})
		}
	}
	assignTrimmed(&tenant.PrimaryColor, patch.PrimaryColor)
	assignTrimmed(&tenant.SecondaryColor, patch.SecondaryColor)
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return nil, mapRepoErr(err, "tenant", tenant.ID)
	}
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       events.EventBrandingUpdated,
		TenantID:   tenant.ID,
		ResourceID: tenant.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.NamedPayload{Name: tenant.Name},
	})
	return tenant, nil
}

// Settings returns the tenant settings, falling back to defaults when none were saved.
func (s *TenantService) Settings(ctx context.Context, actor *domain.User) (*domain.Settings, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	settings, err := s.tenants.GetSettings(ctx, actor.TenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return DefaultSettings(actor.TenantID), nil
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return settings, nil
}

// UpdateSettings replaces the tenant settings.
func (s *TenantService) UpdateSettings(ctx context.Context, actor *domain.User, settings domain.Settings) (*domain.Settings, error) {
	if err := authorize(actor, auth.PermSettingsEdit); err != nil {
		return nil, err
	}
	if settings.Notifications.OverdueWarningDays < 0 || settings.Notifications.DueWarningDays < 0 {
		return nil, apperrors.NewValidationError("warning days must not be negative", nil)
	}
	switch settings.Backup.Frequency {
	case domain.BackupDaily, domain.BackupWeekly, domain.BackupMonthly:
	default:
		return nil, apperrors.NewValidationError("invalid backup frequency", map[string]any{"frequency": settings.Backup.Frequency})
	}
	if settings.Backup.KeepMonths < 0 {
		return nil, apperrors.NewValidationError("keep_months must not be negative", nil)
	}
	settings.TenantID = actor.TenantID
	settings.Integration.WebhookURL = strings.TrimSpace(settings.Integration.WebhookURL)

	s.mu.Lock()
	err := s.tenants.SaveSettings(ctx, &settings)
	s.mu.Unlock()
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       events.EventSettingsUpdated,
		TenantID:   actor.TenantID,
		ResourceID: actor.TenantID,
		Actor:      events.ActorOf(actor),
	})
	return &settings, nil
}

// DefaultSettings is what a tenant runs with before saving any settings.
func DefaultSettings(tenantID string) *domain.Settings {
	return &domain.Settings{
		TenantID: tenantID,
		Notifications: domain.NotificationSettings{
			EmailEnabled:       true,
			PushEnabled:        true,
			OverdueWarningDays: 3,
			DueWarningDays:     7,
		},
		Backup: domain.BackupSettings{
			Automatic:  true,
			Frequency:  domain.BackupWeekly,
			KeepMonths: 12,
		},
	}
}
