package repository

import (
	"context"

	"github.com/spec-kit/processflow/internal/domain"
)

// ClientRepository stores customers.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Client, error)
}

type memoryClientRepository struct {
	rows *table[domain.Client]
}

// NewMemoryClientRepository returns an in-memory implementation.
func NewMemoryClientRepository() ClientRepository {
	return &memoryClientRepository{rows: newTable[domain.Client](nil)}
}

func (r *memoryClientRepository) Create(_ context.Context, client *domain.Client) error {
	return r.rows.insert(client.ID, client, nil)
}

func (r *memoryClientRepository) Update(_ context.Context, client *domain.Client) error {
	return r.rows.replace(client.ID, client, nil)
}

func (r *memoryClientRepository) Delete(_ context.Context, id string) error {
	return r.rows.remove(id)
}

func (r *memoryClientRepository) GetByID(_ context.Context, id string) (*domain.Client, error) {
	return r.rows.get(id)
}

func (r *memoryClientRepository) ListByTenant(_ context.Context, tenantID string) ([]domain.Client, error) {
	return r.rows.scan(func(c *domain.Client) bool { return c.TenantID == tenantID }), nil
}
