package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/seed"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateBranding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	tenant, err := env.tenantSvc.UpdateBranding(ctx, admin, BrandingPatch{
		Name:         ptr(" Fábrica Demo "),
		PrimaryColor: ptr("#0f0"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Fábrica Demo", tenant.Name)
	assert.Equal(t, "#0f0", tenant.PrimaryColor)

	_, err = env.tenantSvc.UpdateBranding(ctx, admin, BrandingPatch{SecondaryColor: ptr("azul")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = env.tenantSvc.UpdateBranding(ctx, env.user(t, seed.UserSupervisor), BrandingPatch{Name: ptr("X")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	stored, err := env.tenants.GetByID(ctx, seed.TenantID)
	require.NoError(t, err)
	stored.Limits.AllowCustomization = false
	require.NoError(t, env.tenants.Update(ctx, stored))
	_, err = env.tenantSvc.UpdateBranding(ctx, admin, BrandingPatch{Name: ptr("Y")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestSettings_DefaultsThenSaved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	settings, err := env.tenantSvc.Settings(ctx, env.user(t, seed.UserReader))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(seed.TenantID), settings)

	next := *settings
	next.Backup.Frequency = domain.BackupDaily
	next.Integration.WebhookURL = "  https://hooks.example.com/pf  "
	saved, err := env.tenantSvc.UpdateSettings(ctx, admin, next)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/pf", saved.Integration.WebhookURL)

	got, err := env.tenantSvc.Settings(ctx, env.user(t, seed.UserOperator))
	require.NoError(t, err)
	assert.Equal(t, domain.BackupDaily, got.Backup.Frequency)
}

func TestUpdateSettings_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	for name, mutate := range map[string]func(s *domain.Settings){
		"negative due":       func(s *domain.Settings) { s.Notifications.DueWarningDays = -1 },
		"negative overdue":   func(s *domain.Settings) { s.Notifications.OverdueWarningDays = -1 },
		"unknown frequency":  func(s *domain.Settings) { s.Backup.Frequency = "hourly" },
		"negative retention": func(s *domain.Settings) { s.Backup.KeepMonths = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			s := *DefaultSettings(seed.TenantID)
			mutate(&s)
			_, err := env.tenantSvc.UpdateSettings(ctx, admin, s)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
		})
	}

	_, err := env.tenantSvc.UpdateSettings(ctx, env.user(t, seed.UserSupervisor), *DefaultSettings(seed.TenantID))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
