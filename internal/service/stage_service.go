package service

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

// StageService manages the pipeline stages of a tenant.
type StageService struct {
	mu         *StoreLock
	stages     repository.StageRepository
	orders     repository.OrderRepository
	dispatcher events.Dispatcher
	now        Clock
}

// StageDependencies bundles the stage service collaborators.
type StageDependencies struct {
	Lock       *StoreLock
	StageRepo  repository.StageRepository
	OrderRepo  repository.OrderRepository
	Dispatcher events.Dispatcher
	Clock      Clock
}

// StageInput describes a new stage. A zero Order appends after the last stage.
type StageInput struct {
	Name        string
	Description string
	Color       string
	Order       int
	Active      *bool
	Config      domain.StageConfig
	IsTerminal  bool
	AllowedNext []string
}

// StagePatch carries optional stage changes.
type StagePatch struct {
	Name        *string
	Description *string
	Color       *string
	Active      *bool
	Config      *domain.StageConfig
	IsTerminal  *bool
	AllowedNext *[]string
}

// NewStageService constructs the service.
func NewStageService(deps StageDependencies) *StageService {
	return &StageService{
		mu:         lockOrNew(deps.Lock),
		stages:     deps.StageRepo,
		orders:     deps.OrderRepo,
		dispatcher: deps.Dispatcher,
		now:        clockOrNow(deps.Clock),
	}
}

// List returns the tenant's stages by order key.
func (s *StageService) List(ctx context.Context, actor *domain.User) ([]domain.Stage, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	stages, err := s.stages.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stages, nil
}

// Create adds a stage.
func (s *StageService) Create(ctx context.Context, actor *domain.User, input StageInput) (*domain.Stage, error) {
	if err := authorize(actor, auth.PermStagesCreate); err != nil {
		return nil, err
	}
	if err := requiredFields(map[string]string{"name": input.Name}); err != nil {
		return nil, err
	}
	if input.Config.NotifyAfterDays < 0 {
		return nil, apperrors.NewValidationError("notify_after_days must not be negative", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.stages.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	id := uuid.NewString()
	next, err := validAllowedNext(existing, id, input.AllowedNext)
	if err != nil {
		return nil, err
	}
	order := input.Order
	if order <= 0 {
		order = 1
		if n := len(existing); n > 0 {
			order = existing[n-1].Order + 1
		}
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	stage := &domain.Stage{
		ID:          id,
		TenantID:    actor.TenantID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Color:       strings.TrimSpace(input.Color),
		Order:       order,
		Active:      active,
		Config:      input.Config,
		IsTerminal:  input.IsTerminal,
		AllowedNext: next,
	}
	if err := s.stages.Create(ctx, stage); err != nil {
		return nil, mapRepoErr(err, "stage", id)
	}
	s.publish(ctx, events.EventStageCreated, actor, stage)
	return stage, nil
}

// Update applies a patch to a stage.
func (s *StageService) Update(ctx context.Context, actor *domain.User, id string, patch StagePatch) (*domain.Stage, error) {
	if err := authorize(actor, auth.PermStagesEdit); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stage, err := s.load(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperrors.NewValidationError("name required", nil)
		}
		stage.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		stage.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Color != nil {
		stage.Color = strings.TrimSpace(*patch.Color)
	}
	if patch.Active != nil {
		stage.Active = *patch.Active
	}
	if patch.Config != nil {
		if patch.Config.NotifyAfterDays < 0 {
			return nil, apperrors.NewValidationError("notify_after_days must not be negative", nil)
		}
		stage.Config = *patch.Config
	}
	if patch.IsTerminal != nil {
		if *patch.IsTerminal && !stage.IsTerminal {
			// Resident orders would count as completed without a delivery date.
			held, err := s.orders.Count(ctx, repository.OrderFilter{TenantID: actor.TenantID, StageIDs: []string{id}})
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			if held > 0 {
				return nil, apperrors.NewConflict("stage still holds orders; move them before marking it terminal", map[string]any{"orders": held})
			}
		}
		stage.IsTerminal = *patch.IsTerminal
	}
	if patch.AllowedNext != nil {
		existing, err := s.stages.ListByTenant(ctx, actor.TenantID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		next, err := validAllowedNext(existing, stage.ID, *patch.AllowedNext)
		if err != nil {
			return nil, err
		}
		stage.AllowedNext = next
	}
	if err := s.stages.Update(ctx, stage); err != nil {
		return nil, mapRepoErr(err, "stage", id)
	}
	s.publish(ctx, events.EventStageUpdated, actor, stage)
	return stage, nil
}

// Delete removes a stage that holds no orders and is not a transition target.
func (s *StageService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := authorize(actor, auth.PermStagesDelete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stage, err := s.load(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	held, err := s.orders.Count(ctx, repository.OrderFilter{TenantID: actor.TenantID, StageIDs: []string{id}})
	if err != nil {
		return apperrors.MapError(err)
	}
	if held > 0 {
		return apperrors.NewConflict("stage still holds orders", map[string]any{"orders": held})
	}
	stages, err := s.stages.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, other := range stages {
		if other.ID != id && slices.Contains(other.AllowedNext, id) {
			return apperrors.NewConflict("stage is referenced by another stage", map[string]any{"stage_id": other.ID})
		}
	}
	if err := s.stages.Delete(ctx, id); err != nil {
		return mapRepoErr(err, "stage", id)
	}
	s.publish(ctx, events.EventStageDeleted, actor, stage)
	return nil
}

// Reorder rewrites order keys 1..n following ids, which must be a
// permutation of the tenant's stage ids.
func (s *StageService) Reorder(ctx context.Context, actor *domain.User, ids []string) ([]domain.Stage, error) {
	if err := authorize(actor, auth.PermStagesReorder); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stages, err := s.stages.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byID := make(map[string]domain.Stage, len(stages))
	for _, st := range stages {
		byID[st.ID] = st
	}
	if len(ids) != len(stages) {
		return nil, apperrors.NewValidationError("reorder must list every stage exactly once", map[string]any{"expected": len(stages), "got": len(ids)})
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, apperrors.NewValidationError("unknown stage in reorder", map[string]any{"stage_id": id})
		}
		if _, dup := seen[id]; dup {
			return nil, apperrors.NewValidationError("duplicate stage in reorder", map[string]any{"stage_id": id})
		}
		seen[id] = struct{}{}
	}

	out := make([]domain.Stage, 0, len(ids))
	for i, id := range ids {
		st := byID[id]
		st.Order = i + 1
		if err := s.stages.Update(ctx, &st); err != nil {
			return nil, mapRepoErr(err, "stage", id)
		}
		out = append(out, st)
	}
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:     events.EventStagesReordered,
		TenantID: actor.TenantID,
		Actor:    events.ActorOf(actor),
	})
	return out, nil
}

func (s *StageService) load(ctx context.Context, tenantID, id string) (*domain.Stage, error) {
	stage, err := s.stages.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "stage", id)
	}
	if stage.TenantID != tenantID {
		return nil, apperrors.NewNotFound("stage", map[string]any{"id": id})
	}
	return stage, nil
}

func (s *StageService) publish(ctx context.Context, eventType events.EventType, actor *domain.User, stage *domain.Stage) {
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       eventType,
		TenantID:   stage.TenantID,
		ResourceID: stage.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.NamedPayload{Name: stage.Name},
	})
}

// validAllowedNext checks every id names another stage of the tenant.
func validAllowedNext(existing []domain.Stage, self string, ids []string) ([]string, error) {
	ids = cleanStrings(ids)
	for _, id := range ids {
		if id == self {
			return nil, apperrors.NewValidationError("stage cannot transition to itself", map[string]any{"stage_id": id})
		}
		if !slices.ContainsFunc(existing, func(st domain.Stage) bool { return st.ID == id }) {
			return nil, apperrors.NewValidationError("unknown stage in allowed_next", map[string]any{"stage_id": id})
		}
	}
	return ids, nil
}
