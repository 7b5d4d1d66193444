package repository

import (
	"context"

	"github.com/spec-kit/processflow/internal/domain"
)

// TenantRepository stores tenants and their settings.
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	Update(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
	SaveSettings(ctx context.Context, settings *domain.Settings) error
	GetSettings(ctx context.Context, tenantID string) (*domain.Settings, error)
}

type memoryTenantRepository struct {
	tenants  *table[domain.Tenant]
	settings *table[domain.Settings]
}

// NewMemoryTenantRepository returns an in-memory implementation.
func NewMemoryTenantRepository() TenantRepository {
	return &memoryTenantRepository{
		tenants:  newTable[domain.Tenant](nil),
		settings: newTable[domain.Settings](nil),
	}
}

func (r *memoryTenantRepository) Create(_ context.Context, tenant *domain.Tenant) error {
	return r.tenants.insert(tenant.ID, tenant, nil)
}

func (r *memoryTenantRepository) Update(_ context.Context, tenant *domain.Tenant) error {
	return r.tenants.replace(tenant.ID, tenant, nil)
}

func (r *memoryTenantRepository) GetByID(_ context.Context, id string) (*domain.Tenant, error) {
	return r.tenants.get(id)
}

func (r *memoryTenantRepository) List(_ context.Context) ([]domain.Tenant, error) {
	return r.tenants.scan(nil), nil
}

func (r *memoryTenantRepository) SaveSettings(_ context.Context, settings *domain.Settings) error {
	if err := r.settings.replace(settings.TenantID, settings, nil); err != ErrNotFound {
		return err
	}
	return r.settings.insert(settings.TenantID, settings, nil)
}

func (r *memoryTenantRepository) GetSettings(_ context.Context, tenantID string) (*domain.Settings, error) {
	return r.settings.get(tenantID)
}
