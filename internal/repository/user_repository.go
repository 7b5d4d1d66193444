package repository

import (
	"context"
	"strings"

	"github.com/spec-kit/processflow/internal/domain"
)

// UserRepository defines persistence access for tenant users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.User, error)
}

type memoryUserRepository struct {
	rows *table[domain.User]
}

// NewMemoryUserRepository returns an in-memory implementation. Emails are unique case-insensitively.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{rows: newTable((*domain.User).Clone)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	return r.rows.insert(user.ID, user, sameEmail(user.Email))
}

func (r *memoryUserRepository) Update(_ context.Context, user *domain.User) error {
	return r.rows.replace(user.ID, user, sameEmail(user.Email))
}

func (r *memoryUserRepository) Delete(_ context.Context, id string) error {
	return r.rows.remove(id)
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.rows.get(id)
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.rows.find(sameEmail(email))
}

func (r *memoryUserRepository) ListByTenant(_ context.Context, tenantID string) ([]domain.User, error) {
	return r.rows.scan(func(u *domain.User) bool { return u.TenantID == tenantID }), nil
}

func sameEmail(email string) func(*domain.User) bool {
	email = strings.TrimSpace(email)
	return func(u *domain.User) bool { return strings.EqualFold(u.Email, email) }
}
