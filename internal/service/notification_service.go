package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/processflow/internal/config"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/ids"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

const (
	finalizedTitle = "Processo Finalizado"
	overdueTitle   = "Processo Atrasado"
	stalledTitle   = "Processo Parado"
	dueTitle       = "Entrega Próxima"
)

// NotificationService stores per-user notifications, raises them for
// finalized, stalled and overdue orders, and drives delivery stubs.
type NotificationService struct {
	mu            sync.Mutex
	notifications repository.NotificationRepository
	users         repository.UserRepository
	orders        repository.OrderRepository
	stages        repository.StageRepository
	tenants       repository.TenantRepository
	dispatcher    events.Dispatcher
	recorder      Recorder
	logger        *zap.Logger
	cfg           config.NotificationConfig
	now           Clock
}

// NotificationDependencies bundles the notification service collaborators.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	OrderRepo        repository.OrderRepository
	StageRepo        repository.StageRepository
	TenantRepo       repository.TenantRepository
	Dispatcher       events.Dispatcher
	Recorder         Recorder
	Logger           *zap.Logger
	Clock            Clock
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.NotificationConfig, deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		orders:        deps.OrderRepo,
		stages:        deps.StageRepo,
		tenants:       deps.TenantRepo,
		dispatcher:    deps.Dispatcher,
		recorder:      recorderOrNop(deps.Recorder),
		logger:        loggerOrNop(deps.Logger),
		cfg:           cfg,
		now:           clockOrNow(deps.Clock),
	}
}

// RegisterHandlers subscribes the delivery stubs to order events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOrderCreated, n.handleOrderCreated)
	n.dispatcher.Subscribe(events.EventOrderMoved, n.handleOrderMoved)
}

// List returns the actor's own notifications, newest first.
func (n *NotificationService) List(ctx context.Context, actor *domain.User) ([]domain.Notification, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	items, err := n.notifications.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// MarkRead flags one of the actor's notifications as read. Notifications of
// other users read as missing.
func (n *NotificationService) MarkRead(ctx context.Context, actor *domain.User, id string) (*domain.Notification, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	item, err := n.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "notification", id)
	}
	if item.UserID != actor.ID {
		return nil, apperrors.NewNotFound("notification", map[string]any{"id": id})
	}
	if item.Read {
		return item, nil
	}
	item.Read = true
	if err := n.notifications.Update(ctx, item); err != nil {
		return nil, mapRepoErr(err, "notification", id)
	}
	return item, nil
}

// MarkAllRead flags every unread notification of the actor and returns how many changed.
func (n *NotificationService) MarkAllRead(ctx context.Context, actor *domain.User) (int, error) {
	if err := authenticated(actor); err != nil {
		return 0, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	items, err := n.notifications.ListByUser(ctx, actor.ID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	changed := 0
	for i := range items {
		if items[i].Read {
			continue
		}
		items[i].Read = true
		if err := n.notifications.Update(ctx, &items[i]); err != nil {
			return changed, mapRepoErr(err, "notification", items[i].ID)
		}
		changed++
	}
	return changed, nil
}

// PruneOrder drops every notification that references orderID.
func (n *NotificationService) PruneOrder(ctx context.Context, orderID string) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notifications.DeleteByOrder(ctx, orderID)
}

// NotifyOrderFinalized raises one unread system notification per active
// admin and supervisor of the order's tenant.
func (n *NotificationService) NotifyOrderFinalized(ctx context.Context, order *domain.Order, operatorName string) error {
	recipients, err := n.staffRecipients(ctx, order.TenantID)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("O processo %s foi finalizado pelo operador %s", order.Number, operatorName)

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, user := range recipients {
		if err := n.create(ctx, order.TenantID, domain.NotificationSystem, finalizedTitle, message, order.ID, user.ID); err != nil {
			return err
		}
	}
	return nil
}

// ScanOrders raises stalled, overdue and due notifications for the tenant.
// Each order is notified at most once per kind, and stalled alerts once per
// stage visit. It returns the number of notifications created.
func (n *NotificationService) ScanOrders(ctx context.Context, tenantID string) (int, error) {
	orders, err := n.orders.List(ctx, repository.OrderFilter{TenantID: tenantID})
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	stages, err := n.stages.ListByTenant(ctx, tenantID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	stageByID := make(map[string]domain.Stage, len(stages))
	for _, st := range stages {
		stageByID[st.ID] = st
	}
	dueWarningDays := 0
	if n.tenants != nil {
		if settings, err := n.tenants.GetSettings(ctx, tenantID); err == nil {
			dueWarningDays = settings.Notifications.DueWarningDays
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	created := 0
	for i := range orders {
		order := &orders[i]
		stage, ok := stageByID[order.CurrentStageID]
		if !ok || stage.IsTerminal || order.DeliveredAt != nil {
			continue
		}
		existing, err := n.notifications.ListByOrder(ctx, order.ID)
		if err != nil {
			return created, apperrors.MapError(err)
		}

		var alerts []alert
		since := order.StageSince()
		if days := stage.Config.NotifyAfterDays; days > 0 && now.Sub(since) >= daysDuration(days) &&
			!hasNotification(existing, domain.NotificationStalled, since) {
			alerts = append(alerts, alert{domain.NotificationStalled, stalledTitle,
				fmt.Sprintf("O pedido %s está parado na etapa de %s há %d dias", order.Number, stage.Name, wholeDays(now.Sub(since)))})
		}
		switch {
		case order.IsOverdue(now):
			if !hasNotification(existing, domain.NotificationOverdue, order.CreatedAt) {
				alerts = append(alerts, alert{domain.NotificationOverdue, overdueTitle,
					fmt.Sprintf("O pedido %s está com a entrega atrasada há %d dias", order.Number, wholeDays(now.Sub(order.ExpectedDelivery)))})
			}
		case dueWarningDays > 0 && !order.ExpectedDelivery.IsZero() && order.ExpectedDelivery.Sub(now) <= daysDuration(dueWarningDays):
			if !hasNotification(existing, domain.NotificationDue, order.CreatedAt) {
				alerts = append(alerts, alert{domain.NotificationDue, dueTitle,
					fmt.Sprintf("A entrega do pedido %s vence em %d dias", order.Number, wholeDays(order.ExpectedDelivery.Sub(now)))})
			}
		}
		if len(alerts) == 0 {
			continue
		}

		recipients, err := n.orderRecipients(ctx, order)
		if err != nil {
			return created, err
		}
		for _, a := range alerts {
			for _, user := range recipients {
				if err := n.create(ctx, tenantID, a.kind, a.title, a.message, order.ID, user.ID); err != nil {
					return created, err
				}
				created++
			}
		}
	}
	return created, nil
}

type alert struct {
	kind    domain.NotificationKind
	title   string
	message string
}

func (n *NotificationService) create(ctx context.Context, tenantID string, kind domain.NotificationKind, title, message, orderID, userID string) error {
	now := n.now()
	item := &domain.Notification{
		ID:        ids.At(now),
		TenantID:  tenantID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		OrderID:   orderID,
		UserID:    userID,
		CreatedAt: now,
	}
	if err := n.notifications.Create(ctx, item); err != nil {
		return mapRepoErr(err, "notification", item.ID)
	}
	n.recorder.RecordNotification(tenantID, kind)
	return nil
}

// orderRecipients prefers the active responsible user and falls back to staff.
func (n *NotificationService) orderRecipients(ctx context.Context, order *domain.Order) ([]domain.User, error) {
	if order.ResponsibleUserID != "" {
		user, err := n.users.GetByID(ctx, order.ResponsibleUserID)
		if err == nil && user.Active && user.TenantID == order.TenantID {
			return []domain.User{*user}, nil
		}
	}
	return n.staffRecipients(ctx, order.TenantID)
}

func (n *NotificationService) staffRecipients(ctx context.Context, tenantID string) ([]domain.User, error) {
	users, err := n.users.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.Active && (u.Role == domain.RoleAdmin || u.Role == domain.RoleSupervisor) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (n *NotificationService) handleOrderCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("OrderCreated", zap.String("order_id", event.ResourceID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleOrderMoved(ctx context.Context, event events.Event) error {
	n.logger.Info("OrderMoved", zap.String("order_id", event.ResourceID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) settingsFor(ctx context.Context, tenantID string) *domain.Settings {
	if n.tenants == nil {
		return nil
	}
	settings, err := n.tenants.GetSettings(ctx, tenantID)
	if err != nil {
		return nil
	}
	return settings
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	if settings := n.settingsFor(ctx, event.TenantID); settings != nil && !settings.Notifications.EmailEnabled {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("order_id", event.ResourceID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if settings := n.settingsFor(ctx, event.TenantID); settings != nil {
		if !settings.Integration.SendUpdates {
			return
		}
		if tenantURL := strings.TrimSpace(settings.Integration.WebhookURL); tenantURL != "" {
			url = tenantURL
		}
	}
	if url == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", url),
		zap.String("order_id", event.ResourceID),
		zap.String("event_type", string(event.Type)))
}

func hasNotification(items []domain.Notification, kind domain.NotificationKind, since time.Time) bool {
	for _, item := range items {
		if item.Kind == kind && !item.CreatedAt.Before(since) {
			return true
		}
	}
	return false
}

func daysDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}

func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}
