package repository

import (
	"context"
	"sort"

	"github.com/spec-kit/processflow/internal/domain"
)

// NotificationRepository stores per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	Update(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	// ListByUser returns the user's notifications, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Notification, error)
	ListByOrder(ctx context.Context, orderID string) ([]domain.Notification, error)
	DeleteByOrder(ctx context.Context, orderID string) (int, error)
}

type memoryNotificationRepository struct {
	rows *table[domain.Notification]
}

// NewMemoryNotificationRepository returns an in-memory implementation.
func NewMemoryNotificationRepository() NotificationRepository {
	return &memoryNotificationRepository{rows: newTable[domain.Notification](nil)}
}

func (r *memoryNotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	return r.rows.insert(n.ID, n, nil)
}

func (r *memoryNotificationRepository) Update(_ context.Context, n *domain.Notification) error {
	return r.rows.replace(n.ID, n, nil)
}

func (r *memoryNotificationRepository) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	return r.rows.get(id)
}

func (r *memoryNotificationRepository) ListByUser(_ context.Context, userID string) ([]domain.Notification, error) {
	items := r.rows.scan(func(n *domain.Notification) bool { return n.UserID == userID })
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (r *memoryNotificationRepository) ListByOrder(_ context.Context, orderID string) ([]domain.Notification, error) {
	return r.rows.scan(func(n *domain.Notification) bool { return n.OrderID == orderID }), nil
}

func (r *memoryNotificationRepository) DeleteByOrder(_ context.Context, orderID string) (int, error) {
	return r.rows.removeWhere(func(n *domain.Notification) bool { return n.OrderID == orderID }), nil
}
