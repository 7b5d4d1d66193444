package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

// ClientRenamer keeps denormalized client names in sync. It is called with
// the store lock held and must not take it again.
type ClientRenamer interface {
	RenameClient(ctx context.Context, tenantID, clientID, name string) error
}

// ClientService manages customers.
type ClientService struct {
	mu         *StoreLock
	clients    repository.ClientRepository
	orders     repository.OrderRepository
	renamers   []ClientRenamer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// ClientDependencies bundles the client service collaborators.
type ClientDependencies struct {
	Lock       *StoreLock
	ClientRepo repository.ClientRepository
	OrderRepo  repository.OrderRepository
	Renamers   []ClientRenamer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// ClientInput describes a new client.
type ClientInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Document string
	Notes    string
	Active   *bool
}

// ClientPatch carries optional client changes.
type ClientPatch struct {
	Name     *string
	Email    *string
	Phone    *string
	Address  *string
	Document *string
	Notes    *string
	Active   *bool
}

// NewClientService constructs the service.
func NewClientService(deps ClientDependencies) *ClientService {
	return &ClientService{
		mu:         lockOrNew(deps.Lock),
		clients:    deps.ClientRepo,
		orders:     deps.OrderRepo,
		renamers:   deps.Renamers,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
	}
}

// List returns the clients visible to the actor.
func (s *ClientService) List(ctx context.Context, actor *domain.User) ([]domain.Client, error) {
	if err := authorize(actor, auth.PermClientsView); err != nil {
		return nil, err
	}
	clients, err := s.clients.ListByTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if _, restricted := clientScope(actor); !restricted {
		return clients, nil
	}
	visible := clients[:0]
	for _, c := range clients {
		if actor.IsLinkedTo(c.ID) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// Get returns one visible client.
func (s *ClientService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Client, error) {
	if err := authorize(actor, auth.PermClientsView); err != nil {
		return nil, err
	}
	client, err := s.load(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !canSeeClient(actor, id) {
		return nil, apperrors.NewNotFound("client", map[string]any{"id": id})
	}
	return client, nil
}

// Create adds a client.
func (s *ClientService) Create(ctx context.Context, actor *domain.User, input ClientInput) (*domain.Client, error) {
	if err := authorize(actor, auth.PermClientsCreate); err != nil {
		return nil, err
	}
	if err := requiredFields(map[string]string{"name": input.Name}); err != nil {
		return nil, err
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}
	client := &domain.Client{
		ID:        uuid.NewString(),
		TenantID:  actor.TenantID,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		Address:   strings.TrimSpace(input.Address),
		Document:  strings.TrimSpace(input.Document),
		Notes:     strings.TrimSpace(input.Notes),
		Active:    active,
		CreatedAt: s.now(),
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, mapRepoErr(err, "client", client.ID)
	}
	s.publish(ctx, events.EventClientCreated, actor, client)
	return client, nil
}

// Update applies a patch. A rename is propagated to orders and conversations.
func (s *ClientService) Update(ctx context.Context, actor *domain.User, id string, patch ClientPatch) (*domain.Client, error) {
	if err := authorize(actor, auth.PermClientsEdit); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := s.load(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	previousName := client.Name
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, apperrors.NewValidationError("name required", nil)
		}
		client.Name = strings.TrimSpace(*patch.Name)
	}
	assignTrimmed(&client.Email, patch.Email)
	assignTrimmed(&client.Phone, patch.Phone)
	assignTrimmed(&client.Address, patch.Address)
	assignTrimmed(&client.Document, patch.Document)
	assignTrimmed(&client.Notes, patch.Notes)
	if patch.Active != nil {
		client.Active = *patch.Active
	}
	if err := s.clients.Update(ctx, client); err != nil {
		return nil, mapRepoErr(err, "client", id)
	}
	if client.Name != previousName {
		for _, r := range s.renamers {
			if err := r.RenameClient(ctx, client.TenantID, client.ID, client.Name); err != nil {
				s.logger.Warn("client rename propagation failed", zap.String("client_id", client.ID), zap.Error(err))
			}
		}
	}
	s.publish(ctx, events.EventClientUpdated, actor, client)
	return client, nil
}

// Delete removes a client that no order references.
func (s *ClientService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := authorize(actor, auth.PermClientsDelete); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := s.load(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	refs, err := s.orders.Count(ctx, repository.OrderFilter{TenantID: actor.TenantID, ClientIDs: []string{id}})
	if err != nil {
		return apperrors.MapError(err)
	}
	if refs > 0 {
		return apperrors.NewConflict("client still has orders", map[string]any{"orders": refs})
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		return mapRepoErr(err, "client", id)
	}
	s.publish(ctx, events.EventClientDeleted, actor, client)
	return nil
}

func (s *ClientService) load(ctx context.Context, tenantID, id string) (*domain.Client, error) {
	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "client", id)
	}
	if client.TenantID != tenantID {
		return nil, apperrors.NewNotFound("client", map[string]any{"id": id})
	}
	return client, nil
}

func (s *ClientService) publish(ctx context.Context, eventType events.EventType, actor *domain.User, client *domain.Client) {
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       eventType,
		TenantID:   client.TenantID,
		ResourceID: client.ID,
		Actor:      events.ActorOf(actor),
		Payload:    events.NamedPayload{Name: client.Name},
	})
}

func assignTrimmed(dst *string, val *string) {
	if val != nil {
		*dst = strings.TrimSpace(*val)
	}
}
