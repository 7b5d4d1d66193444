package repository

import (
	"context"
	"sort"

	"github.com/spec-kit/processflow/internal/domain"
)

// StageRepository stores pipeline stages.
type StageRepository interface {
	Create(ctx context.Context, stage *domain.Stage) error
	Update(ctx context.Context, stage *domain.Stage) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Stage, error)
	// ListByTenant returns stages sorted by their order key.
	ListByTenant(ctx context.Context, tenantID string) ([]domain.Stage, error)
}

type memoryStageRepository struct {
	rows *table[domain.Stage]
}

// NewMemoryStageRepository returns an in-memory implementation.
func NewMemoryStageRepository() StageRepository {
	return &memoryStageRepository{rows: newTable((*domain.Stage).Clone)}
}

func (r *memoryStageRepository) Create(_ context.Context, stage *domain.Stage) error {
	return r.rows.insert(stage.ID, stage, nil)
}

func (r *memoryStageRepository) Update(_ context.Context, stage *domain.Stage) error {
	return r.rows.replace(stage.ID, stage, nil)
}

func (r *memoryStageRepository) Delete(_ context.Context, id string) error {
	return r.rows.remove(id)
}

func (r *memoryStageRepository) GetByID(_ context.Context, id string) (*domain.Stage, error) {
	return r.rows.get(id)
}

func (r *memoryStageRepository) ListByTenant(_ context.Context, tenantID string) ([]domain.Stage, error) {
	stages := r.rows.scan(func(s *domain.Stage) bool { return s.TenantID == tenantID })
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].Order < stages[j].Order })
	return stages, nil
}
