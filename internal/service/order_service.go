package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/ids"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

const createdComment = "Processo criado"

// OrderService is the order lifecycle engine. It owns creation, edits,
// deletion and stage transitions, and keeps the movement history append-only.
type OrderService struct {
	mu         *StoreLock
	orders     repository.OrderRepository
	stages     repository.StageRepository
	clients    repository.ClientRepository
	users      repository.UserRepository
	tenants    repository.TenantRepository
	archive    repository.MovementArchive
	notifier   *NotificationService
	dispatcher events.Dispatcher
	recorder   Recorder
	logger     *zap.Logger
	now        Clock
}

// OrderDependencies bundles the lifecycle engine collaborators. Archive,
// Notifier and Recorder are optional. Lock must be the instance shared with
// the stage, client and user services.
type OrderDependencies struct {
	Lock       *StoreLock
	OrderRepo  repository.OrderRepository
	StageRepo  repository.StageRepository
	ClientRepo repository.ClientRepository
	UserRepo   repository.UserRepository
	TenantRepo repository.TenantRepository
	Archive    repository.MovementArchive
	Notifier   *NotificationService
	Dispatcher events.Dispatcher
	Recorder   Recorder
	Logger     *zap.Logger
	Clock      Clock
}

// OrderInput describes a new order. Empty Number, StageID, Location and
// Priority fall back to generated or default values.
type OrderInput struct {
	Number            string
	ClientID          string
	Seller            string
	SaleDate          time.Time
	FirstPaymentDate  *time.Time
	ExpectedDelivery  time.Time
	Product           string
	Quantity          int
	Packaging         string
	FreightType       string
	StageID           string
	Location          domain.Location
	Courtesies        []string
	Shortages         []string
	Notes             string
	Priority          domain.Priority
	TotalValue        decimal.Decimal
	ResponsibleUserID string
	Tags              []string
}

// OrderPatch carries optional order changes. Stage and delivery date are
// owned by Move and cannot be patched.
type OrderPatch struct {
	ClientID          *string
	Seller            *string
	SaleDate          *time.Time
	FirstPaymentDate  *time.Time
	ExpectedDelivery  *time.Time
	Product           *string
	Quantity          *int
	Packaging         *string
	FreightType       *string
	Location          *domain.Location
	Courtesies        *[]string
	Shortages         *[]string
	Notes             *string
	Priority          *domain.Priority
	TotalValue        *decimal.Decimal
	ResponsibleUserID *string
	Tags              *[]string
}

// MoveInput describes a stage transition.
type MoveInput struct {
	TargetStageID string
	Comment       string
	// Location overrides where the goods are after the move.
	Location  *domain.Location
	Automatic bool
}

// NewOrderService constructs the lifecycle engine.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		mu:         lockOrNew(deps.Lock),
		orders:     deps.OrderRepo,
		stages:     deps.StageRepo,
		clients:    deps.ClientRepo,
		users:      deps.UserRepo,
		tenants:    deps.TenantRepo,
		archive:    deps.Archive,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		recorder:   recorderOrNop(deps.Recorder),
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrNow(deps.Clock),
	}
}

// Create registers an order in its initial stage.
func (s *OrderService) Create(ctx context.Context, actor *domain.User, input OrderInput) (*domain.Order, error) {
	if err := authorize(actor, auth.PermOrdersCreate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, apperrors.NewValidationError("client required", map[string]any{"fields": []string{"client_id"}})
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityNormal
	}
	if input.Location == "" {
		input.Location = domain.LocationYard
	}

	s.mu.Lock()
	order, err := s.createLocked(ctx, actor, input)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.publishChange(ctx, events.EventOrderCreated, actor, order)
	return order, nil
}

// createLocked resolves the client and responsible user under the store lock
// so a concurrent delete cannot leave the new order dangling.
func (s *OrderService) createLocked(ctx context.Context, actor *domain.User, input OrderInput) (*domain.Order, error) {
	client, err := s.clients.GetByID(ctx, input.ClientID)
	if err != nil || client.TenantID != actor.TenantID {
		return nil, apperrors.NewValidationError("unknown client", map[string]any{"client_id": input.ClientID})
	}
	if err := s.validateFields(ctx, actor.TenantID, input.Priority, input.Location, input.Quantity, input.TotalValue, input.ResponsibleUserID); err != nil {
		return nil, err
	}
	if err := s.checkOrderLimit(ctx, actor.TenantID); err != nil {
		return nil, err
	}
	stage, err := s.initialStage(ctx, actor.TenantID, input.StageID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	number := strings.TrimSpace(input.Number)
	if number == "" {
		if number, err = s.nextNumber(ctx, actor.TenantID, now); err != nil {
			return nil, err
		}
	}
	saleDate := input.SaleDate
	if saleDate.IsZero() {
		saleDate = now
	}

	order := &domain.Order{
		ID:                uuid.NewString(),
		TenantID:          actor.TenantID,
		Number:            number,
		ClientID:          client.ID,
		ClientName:        client.Name,
		Seller:            strings.TrimSpace(input.Seller),
		SaleDate:          saleDate,
		FirstPaymentDate:  input.FirstPaymentDate,
		ExpectedDelivery:  input.ExpectedDelivery,
		Product:           strings.TrimSpace(input.Product),
		Quantity:          input.Quantity,
		Packaging:         strings.TrimSpace(input.Packaging),
		FreightType:       strings.TrimSpace(input.FreightType),
		CurrentStageID:    stage.ID,
		Location:          input.Location,
		Courtesies:        cleanStrings(input.Courtesies),
		Shortages:         cleanStrings(input.Shortages),
		Notes:             strings.TrimSpace(input.Notes),
		Priority:          input.Priority,
		TotalValue:        input.TotalValue,
		ResponsibleUserID: input.ResponsibleUserID,
		Tags:              cleanStrings(input.Tags),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if stage.IsTerminal {
		delivered := now
		order.DeliveredAt = &delivered
	}
	record := domain.MovementRecord{
		ID:         ids.At(now),
		OrderID:    order.ID,
		NewStageID: stage.ID,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		At:         now,
		Comment:    createdComment,
		NewLoc:     order.Location,
	}
	order.History = []domain.MovementRecord{record}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("order number already in use", map[string]any{"number": order.Number})
		}
		return nil, apperrors.MapError(err)
	}
	s.archiveRecord(ctx, order.TenantID, record)
	return order, nil
}

// Update applies a patch without touching the stage or the delivery date.
func (s *OrderService) Update(ctx context.Context, actor *domain.User, id string, patch OrderPatch) (*domain.Order, error) {
	if err := authorize(actor, auth.PermOrdersEdit); err != nil {
		return nil, err
	}
	s.mu.Lock()
	order, err := s.updateLocked(ctx, actor, id, patch)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.publishChange(ctx, events.EventOrderUpdated, actor, order)
	return order, nil
}

func (s *OrderService) updateLocked(ctx context.Context, actor *domain.User, id string, patch OrderPatch) (*domain.Order, error) {
	order, err := s.load(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if patch.ClientID != nil && *patch.ClientID != order.ClientID {
		client, err := s.clients.GetByID(ctx, *patch.ClientID)
		if err != nil || client.TenantID != actor.TenantID {
			return nil, apperrors.NewValidationError("unknown client", map[string]any{"client_id": *patch.ClientID})
		}
		order.ClientID = client.ID
		order.ClientName = client.Name
	}
	assignTrimmed(&order.Seller, patch.Seller)
	assignTrimmed(&order.Product, patch.Product)
	assignTrimmed(&order.Packaging, patch.Packaging)
	assignTrimmed(&order.FreightType, patch.FreightType)
	assignTrimmed(&order.Notes, patch.Notes)
	if patch.SaleDate != nil {
		order.SaleDate = *patch.SaleDate
	}
	if patch.FirstPaymentDate != nil {
		ts := *patch.FirstPaymentDate
		order.FirstPaymentDate = &ts
	}
	if patch.ExpectedDelivery != nil {
		order.ExpectedDelivery = *patch.ExpectedDelivery
	}
	if patch.Quantity != nil {
		order.Quantity = *patch.Quantity
	}
	if patch.Location != nil {
		order.Location = *patch.Location
	}
	if patch.Priority != nil {
		order.Priority = *patch.Priority
	}
	if patch.TotalValue != nil {
		order.TotalValue = *patch.TotalValue
	}
	if patch.ResponsibleUserID != nil {
		order.ResponsibleUserID = strings.TrimSpace(*patch.ResponsibleUserID)
	}
	if patch.Courtesies != nil {
		order.Courtesies = cleanStrings(*patch.Courtesies)
	}
	if patch.Shortages != nil {
		order.Shortages = cleanStrings(*patch.Shortages)
	}
	if patch.Tags != nil {
		order.Tags = cleanStrings(*patch.Tags)
	}
	if err := s.validateFields(ctx, actor.TenantID, order.Priority, order.Location, order.Quantity, order.TotalValue, order.ResponsibleUserID); err != nil {
		return nil, err
	}
	order.UpdatedAt = s.now()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, mapRepoErr(err, "order", id)
	}
	return order, nil
}

// Delete removes an order and the notifications that reference it.
func (s *OrderService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := authorize(actor, auth.PermOrdersDelete); err != nil {
		return err
	}
	s.mu.Lock()
	order, err := s.load(ctx, actor.TenantID, id)
	if err == nil {
		err = mapRepoErr(s.orders.Delete(ctx, id), "order", id)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if s.notifier != nil {
		if _, err := s.notifier.PruneOrder(ctx, id); err != nil {
			s.logger.Warn("pruning order notifications failed", zap.String("order_id", id), zap.Error(err))
		}
	}
	s.publishChange(ctx, events.EventOrderDeleted, actor, order)
	return nil
}

// Move transitions an order to another stage and appends the movement record.
func (s *OrderService) Move(ctx context.Context, actor *domain.User, orderID string, input MoveInput) (*domain.Order, error) {
	if err := authorize(actor, auth.PermOrdersMove, auth.PermOrdersFinalize); err != nil {
		return nil, err
	}
	s.mu.Lock()
	order, target, record, err := s.moveLocked(ctx, actor, orderID, input)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.recorder.RecordMove(order.TenantID, target.IsTerminal, input.Automatic)
	if actor.Role == domain.RoleOperator && target.IsTerminal && s.notifier != nil {
		if err := s.notifier.NotifyOrderFinalized(ctx, order, actor.Name); err != nil {
			s.logger.Error("finalization notification failed", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       events.EventOrderMoved,
		TenantID:   order.TenantID,
		ResourceID: order.ID,
		Actor:      events.ActorOf(actor),
		Payload: events.OrderMovedPayload{
			OrderNumber:     order.Number,
			PreviousStageID: record.PreviousStageID,
			NewStageID:      record.NewStageID,
			NewStageName:    target.Name,
			Terminal:        target.IsTerminal,
			Comment:         record.Comment,
			Automatic:       record.Automatic,
			MovementID:      record.ID,
		},
	})
	return order, nil
}

func (s *OrderService) moveLocked(ctx context.Context, actor *domain.User, orderID string, input MoveInput) (*domain.Order, *domain.Stage, domain.MovementRecord, error) {
	var record domain.MovementRecord
	order, err := s.load(ctx, actor.TenantID, orderID)
	if err != nil {
		return nil, nil, record, err
	}
	target, err := s.stages.GetByID(ctx, input.TargetStageID)
	if err != nil || target.TenantID != actor.TenantID {
		return nil, nil, record, apperrors.NewNotFound("stage", map[string]any{"id": input.TargetStageID})
	}
	if !target.Active {
		return nil, nil, record, apperrors.NewValidationError("target stage is inactive", map[string]any{"stage_id": target.ID})
	}
	if target.ID == order.CurrentStageID {
		return nil, nil, record, apperrors.NewValidationError("order is already in this stage", map[string]any{"stage_id": target.ID})
	}
	current, err := s.stages.GetByID(ctx, order.CurrentStageID)
	if err != nil {
		return nil, nil, record, apperrors.NewInternalError(fmt.Errorf("order %s sits in missing stage %s: %w", order.ID, order.CurrentStageID, err))
	}
	if !current.AllowsTransitionTo(target.ID) {
		return nil, nil, record, apperrors.NewInvalidTransition(current.ID, target.ID)
	}
	if input.Location != nil && !input.Location.Valid() {
		return nil, nil, record, apperrors.NewValidationError("invalid location", map[string]any{"location": *input.Location})
	}

	now := s.now()
	previousLoc := order.Location
	switch {
	case input.Location != nil:
		order.Location = *input.Location
	case target.IsTerminal:
		order.Location = domain.LocationDelivered
	}
	record = domain.MovementRecord{
		ID:              ids.At(now),
		OrderID:         order.ID,
		PreviousStageID: order.CurrentStageID,
		NewStageID:      target.ID,
		ActorID:         actor.ID,
		ActorName:       actor.Name,
		At:              now,
		Comment:         strings.TrimSpace(input.Comment),
		PreviousLoc:     previousLoc,
		NewLoc:          order.Location,
		Automatic:       input.Automatic,
	}
	order.CurrentStageID = target.ID
	order.UpdatedAt = now
	if target.IsTerminal && order.DeliveredAt == nil {
		delivered := now
		order.DeliveredAt = &delivered
	}
	order.History = append(order.History, record)
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, nil, record, mapRepoErr(err, "order", orderID)
	}
	s.archiveRecord(ctx, order.TenantID, record)
	return order, target, record, nil
}

// List returns the orders matching filter that the actor may see.
func (s *OrderService) List(ctx context.Context, actor *domain.User, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if err := authorize(actor, auth.PermOrdersView); err != nil {
		return nil, 0, err
	}
	filter.TenantID = actor.TenantID
	if linked, restricted := clientScope(actor); restricted {
		filter.RestrictClients = true
		filter.ClientIDs = intersectScope(filter.ClientIDs, linked)
	}
	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return orders, total, nil
}

// Get returns a single visible order.
func (s *OrderService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Order, error) {
	if err := authorize(actor, auth.PermOrdersView); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !canSeeClient(actor, order.ClientID) {
		return nil, apperrors.NewNotFound("order", map[string]any{"id": id})
	}
	return order, nil
}

// History returns the movement records of a visible order, oldest first.
func (s *OrderService) History(ctx context.Context, actor *domain.User, id string) ([]domain.MovementRecord, error) {
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return order.History, nil
}

// ArchivedHistory reads the durable copy of an order's movements when an
// archive is configured. A copy whose last movement does not land on the
// current stage is stale and the in-memory history is returned instead.
func (s *OrderService) ArchivedHistory(ctx context.Context, actor *domain.User, id string) ([]domain.MovementRecord, error) {
	order, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.archive == nil {
		return order.History, nil
	}
	records, err := s.archive.ListByOrder(ctx, order.TenantID, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if n := len(records); n == 0 || records[n-1].NewStageID != order.CurrentStageID {
		s.logger.Warn("archived history out of date; serving live history",
			zap.String("order_id", id), zap.Int("archived", n), zap.Int("live", len(order.History)))
		return order.History, nil
	}
	return records, nil
}

// SyncArchive rewrites the archived history of every live order from the
// in-memory store. It runs at boot so a reseeded store and the archive agree.
func (s *OrderService) SyncArchive(ctx context.Context) (int, error) {
	if s.archive == nil || s.tenants == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return 0, err
	}
	synced := 0
	for _, tenant := range tenants {
		orders, err := s.orders.List(ctx, repository.OrderFilter{TenantID: tenant.ID})
		if err != nil {
			return synced, err
		}
		for _, order := range orders {
			if err := s.archive.Replace(ctx, tenant.ID, order.ID, order.History); err != nil {
				return synced, fmt.Errorf("sync archive for order %s: %w", order.ID, err)
			}
			synced++
		}
	}
	return synced, nil
}

// RenameClient refreshes the denormalized client name on every order of the
// client. The caller holds the store lock.
func (s *OrderService) RenameClient(ctx context.Context, tenantID, clientID, name string) error {
	orders, err := s.orders.List(ctx, repository.OrderFilter{TenantID: tenantID, ClientIDs: []string{clientID}})
	if err != nil {
		return err
	}
	for i := range orders {
		orders[i].ClientName = name
		if err := s.orders.Update(ctx, &orders[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) load(ctx context.Context, tenantID, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "order", id)
	}
	if order.TenantID != tenantID {
		return nil, apperrors.NewNotFound("order", map[string]any{"id": id})
	}
	return order, nil
}

// initialStage resolves an explicit stage or the first active one by order key.
func (s *OrderService) initialStage(ctx context.Context, tenantID, stageID string) (*domain.Stage, error) {
	if stageID != "" {
		stage, err := s.stages.GetByID(ctx, stageID)
		if err != nil || stage.TenantID != tenantID {
			return nil, apperrors.NewValidationError("unknown stage", map[string]any{"stage_id": stageID})
		}
		if !stage.Active {
			return nil, apperrors.NewValidationError("stage is inactive", map[string]any{"stage_id": stageID})
		}
		return stage, nil
	}
	stages, err := s.stages.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range stages {
		if stages[i].Active {
			return &stages[i], nil
		}
	}
	return nil, apperrors.NewValidationError("tenant has no active stage", nil)
}

func (s *OrderService) nextNumber(ctx context.Context, tenantID string, now time.Time) (string, error) {
	prefix := fmt.Sprintf("PED-%d-", now.Year())
	orders, err := s.orders.List(ctx, repository.OrderFilter{TenantID: tenantID})
	if err != nil {
		return "", apperrors.MapError(err)
	}
	taken := make(map[string]struct{}, len(orders))
	seq := 1
	for _, o := range orders {
		taken[o.Number] = struct{}{}
		if strings.HasPrefix(o.Number, prefix) {
			seq++
		}
	}
	for {
		number := fmt.Sprintf("%s%03d", prefix, seq)
		if _, dup := taken[number]; !dup {
			return number, nil
		}
		seq++
	}
}

func (s *OrderService) checkOrderLimit(ctx context.Context, tenantID string) error {
	if s.tenants == nil {
		return nil
	}
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil || tenant.Limits.MaxOrders <= 0 {
		return nil
	}
	count, err := s.orders.Count(ctx, repository.OrderFilter{TenantID: tenantID})
	if err != nil {
		return apperrors.MapError(err)
	}
	if count >= tenant.Limits.MaxOrders {
		return apperrors.NewLimitExceeded("order", tenant.Limits.MaxOrders)
	}
	return nil
}

func (s *OrderService) validateFields(ctx context.Context, tenantID string, priority domain.Priority, location domain.Location, quantity int, total decimal.Decimal, responsibleID string) error {
	if !priority.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}
	if !location.Valid() {
		return apperrors.NewValidationError("invalid location", map[string]any{"location": location})
	}
	if quantity < 0 {
		return apperrors.NewValidationError("quantity must not be negative", nil)
	}
	if total.IsNegative() {
		return apperrors.NewValidationError("total value must not be negative", nil)
	}
	if responsibleID != "" {
		user, err := s.users.GetByID(ctx, responsibleID)
		if err != nil || user.TenantID != tenantID {
			return apperrors.NewValidationError("unknown responsible user", map[string]any{"user_id": responsibleID})
		}
	}
	return nil
}

func (s *OrderService) archiveRecord(ctx context.Context, tenantID string, record domain.MovementRecord) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Append(ctx, tenantID, record); err != nil {
		s.logger.Warn("movement archive append failed", zap.String("order_id", record.OrderID), zap.String("movement_id", record.ID), zap.Error(err))
	}
}

func (s *OrderService) publishChange(ctx context.Context, eventType events.EventType, actor *domain.User, order *domain.Order) {
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       eventType,
		TenantID:   order.TenantID,
		ResourceID: order.ID,
		Actor:      events.ActorOf(actor),
		Payload: events.OrderChangedPayload{
			OrderNumber: order.Number,
			ClientID:    order.ClientID,
			StageID:     order.CurrentStageID,
		},
	})
}

// intersectScope narrows requested client ids to the linked ones. An empty
// request means every linked client.
func intersectScope(requested, linked []string) []string {
	if len(requested) == 0 {
		return append([]string(nil), linked...)
	}
	out := make([]string, 0, len(requested))
	for _, id := range requested {
		for _, l := range linked {
			if id == l {
				out = append(out, id)
				break
			}
		}
	}
	return out
}
