package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

// UserService manages tenant users.
type UserService struct {
	mu         *StoreLock
	users      repository.UserRepository
	clients    repository.ClientRepository
	orders     repository.OrderRepository
	tenants    repository.TenantRepository
	bcryptCost int
	dispatcher events.Dispatcher
	now        Clock
}

// UserDependencies bundles repositories for user service.
type UserDependencies struct {
	Lock       *StoreLock
	UserRepo   repository.UserRepository
	ClientRepo repository.ClientRepository
	OrderRepo  repository.OrderRepository
	TenantRepo repository.TenantRepository
	BcryptCost int
	Dispatcher events.Dispatcher
	Clock      Clock
}

// UserInput describes user creation payload.
type UserInput struct {
	Name            string
	Email           string
	Password        string
	Role            domain.Role
	Sector          string
	Team            string
	Active          *bool
	LinkedClientIDs []string
}

// UserPatch carries optional user changes.
type UserPatch struct {
	Name            *string
	Email           *string
	Role            *domain.Role
	Sector          *string
	Team            *string
	Active          *bool
	LinkedClientIDs *[]string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		mu:         lockOrNew(deps.Lock),
		users:      deps.UserRepo,
		clients:    deps.ClientRepo,
		orders:     deps.OrderRepo,
		tenants:    deps.TenantRepo,
		bcryptCost: deps.BcryptCost,
		dispatcher: deps.Dispatcher,
		now:        clockOrNow(deps.Clock),
	}
}

// List returns the actor's tenant users.
func (s *UserService) List(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := authorize(actor, auth.PermUsersView); err != nil {
		return nil, err
	}
	users, err := s.users.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Get returns a single user of the actor's tenant.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := authorize(actor, auth.PermUsersView); err != nil {
		return nil, err
	}
	return s.load(ctx, actor.TenantID, id)
}

// Create adds a user, enforcing the tenant user limit.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input UserInput) (*domain.User, error) {
	if err := authorize(actor, auth.PermUsersCreate); err != nil {
		return nil, err
	}
	if err := requiredFields(map[string]string{"name": input.Name, "email": input.Email, "password": input.Password}); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError("password too short", map[string]any{"min_length": auth.MinPasswordLength})
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	linked, err := s.validLinkedClients(ctx, actor.TenantID, input.LinkedClientIDs)
	if err != nil {
		return nil, err
	}
	if err := s.checkUserLimit(ctx, actor.TenantID); err != nil {
		return nil, err
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	user := &domain.User{
		ID:              uuid.NewString(),
		TenantID:        actor.TenantID,
		Name:            strings.TrimSpace(input.Name),
		Email:           strings.TrimSpace(input.Email),
		PasswordHash:    hash,
		Role:            input.Role,
		Sector:          strings.TrimSpace(input.Sector),
		Team:            strings.TrimSpace(input.Team),
		Active:          active,
		LinkedClientIDs: linked,
		CreatedAt:       s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.EventUserCreated, actor, user)
	return user, nil
}

// Update applies a patch to a user.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, patch UserPatch) (*domain.User, error) {
	if err := authorize(actor, auth.PermUsersEdit); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.load(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperrors.NewValidationError("name required", nil)
		}
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		if strings.TrimSpace(*patch.Email) == "" {
			return nil, apperrors.NewValidationError("email required", nil)
		}
		user.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *patch.Role})
		}
		user.Role = *patch.Role
	}
	if patch.Sector != nil {
		user.Sector = strings.TrimSpace(*patch.Sector)
	}
	if patch.Team != nil {
		user.Team = strings.TrimSpace(*patch.Team)
	}
	if patch.Active != nil {
		if !*patch.Active && user.ID == actor.ID {
			return nil, apperrors.NewConflict("cannot deactivate yourself", nil)
		}
		user.Active = *patch.Active
	}
	if patch.LinkedClientIDs != nil {
		linked, err := s.validLinkedClients(ctx, actor.TenantID, *patch.LinkedClientIDs)
		if err != nil {
			return nil, err
		}
		user.LinkedClientIDs = linked
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
		}
		return nil, mapRepoErr(err, "user", id)
	}
	s.publish(ctx, events.EventUserUpdated, actor, user)
	return user, nil
}

// Delete removes a user. Self-deletion and users still responsible for
// orders are rejected.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := authorize(actor, auth.PermUsersDelete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.load(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if user.ID == actor.ID {
		return apperrors.NewConflict("cannot delete yourself", nil)
	}
	linked, err := s.orders.Count(ctx, repository.OrderFilter{TenantID: user.TenantID, ResponsibleID: user.ID})
	if err != nil {
		return apperrors.MapError(err)
	}
	if linked > 0 {
		return apperrors.NewConflict("user is responsible for orders", map[string]any{"orders": linked})
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return mapRepoErr(err, "user", id)
	}
	s.publish(ctx, events.EventUserDeleted, actor, user)
	return nil
}

// SetPassword lets an administrator replace another user's password.
func (s *UserService) SetPassword(ctx context.Context, actor *domain.User, id, password string) error {
	if err := authorize(actor, auth.PermUsersEdit); err != nil {
		return err
	}
	if len(password) < auth.MinPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"min_length": auth.MinPasswordLength})
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.load(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return mapRepoErr(err, "user", id)
	}
	s.publish(ctx, events.EventPasswordChanged, actor, user)
	return nil
}

func (s *UserService) load(ctx context.Context, tenantID, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "user", id)
	}
	if user.TenantID != tenantID {
		return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
	}
	return user, nil
}

func (s *UserService) checkUserLimit(ctx context.Context, tenantID string) error {
	if s.tenants == nil {
		return nil
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil || tenant.Limits.MaxUsers <= 0 {
		return nil
	}
	users, err := s.users.ListByTenant(ctx, tenantID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if len(users) >= tenant.Limits.MaxUsers {
		return apperrors.NewLimitExceeded("user", tenant.Limits.MaxUsers)
	}
	return nil
}

func (s *UserService) validLinkedClients(ctx context.Context, tenantID string, ids []string) ([]string, error) {
	ids = cleanStrings(ids)
	for _, id := range ids {
		client, err := s.clients.GetByID(ctx, id)
		if err != nil || client.TenantID != tenantID {
			return nil, apperrors.NewValidationError("unknown linked client", map[string]any{"client_id": id})
		}
	}
	return ids, nil
}

func (s *UserService) publish(ctx context.Context, eventType events.EventType, actor, user *domain.User) {
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       eventType,
		TenantID:   user.TenantID,
		ResourceID: user.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.NamedPayload{Name: user.Name},
	})
}
