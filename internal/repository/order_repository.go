package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/processflow/internal/domain"
)

// OrderFilter narrows order listings. Zero values do not filter.
type OrderFilter struct {
	TenantID      string
	SearchTerm    string
	StageIDs      []string
	Sellers       []string
	Locations     []domain.Location
	Priorities    []domain.Priority
	Tags          []string
	ResponsibleID string
	SaleFrom      *time.Time
	SaleTo        *time.Time
	// RestrictClients limits results to ClientIDs even when it is empty.
	RestrictClients bool
	ClientIDs       []string
	Limit           int
	Offset          int
}

// OrderRepository stores orders together with their movement history.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, order *domain.Order) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	Count(ctx context.Context, filter OrderFilter) (int, error)
}

type memoryOrderRepository struct {
	rows *table[domain.Order]
}

// NewMemoryOrderRepository returns an in-memory implementation. Order numbers are unique per tenant.
func NewMemoryOrderRepository() OrderRepository {
	return &memoryOrderRepository{rows: newTable((*domain.Order).Clone)}
}

func (r *memoryOrderRepository) Create(_ context.Context, order *domain.Order) error {
	return r.rows.insert(order.ID, order, sameNumber(order))
}

func (r *memoryOrderRepository) Update(_ context.Context, order *domain.Order) error {
	return r.rows.replace(order.ID, order, sameNumber(order))
}

func (r *memoryOrderRepository) Delete(_ context.Context, id string) error {
	return r.rows.remove(id)
}

func (r *memoryOrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	return r.rows.get(id)
}

// List returns matching orders, newest sale first.
func (r *memoryOrderRepository) List(_ context.Context, filter OrderFilter) ([]domain.Order, error) {
	orders := r.rows.scan(filter.matches)
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].SaleDate.Equal(orders[j].SaleDate) {
			return orders[i].SaleDate.After(orders[j].SaleDate)
		}
		return orders[i].Number < orders[j].Number
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(orders) {
			return []domain.Order{}, nil
		}
		orders = orders[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(orders) {
		orders = orders[:filter.Limit]
	}
	return orders, nil
}

func (r *memoryOrderRepository) Count(_ context.Context, filter OrderFilter) (int, error) {
	return len(r.rows.scan(filter.matches)), nil
}

func (f OrderFilter) matches(o *domain.Order) bool {
	if f.TenantID != "" && o.TenantID != f.TenantID {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		hit := false
		for _, field := range []string{o.Number, o.ClientName, o.Seller, o.Product} {
			if strings.Contains(strings.ToLower(field), term) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if len(f.StageIDs) > 0 && !slices.Contains(f.StageIDs, o.CurrentStageID) {
		return false
	}
	if len(f.Sellers) > 0 && !slices.Contains(f.Sellers, o.Seller) {
		return false
	}
	if len(f.Locations) > 0 && !slices.Contains(f.Locations, o.Location) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, o.Priority) {
		return false
	}
	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, func(tag string) bool { return slices.Contains(o.Tags, tag) }) {
		return false
	}
	if f.ResponsibleID != "" && o.ResponsibleUserID != f.ResponsibleID {
		return false
	}
	if f.SaleFrom != nil && o.SaleDate.Before(*f.SaleFrom) {
		return false
	}
	if f.SaleTo != nil && o.SaleDate.After(*f.SaleTo) {
		return false
	}
	if (f.RestrictClients || len(f.ClientIDs) > 0) && !slices.Contains(f.ClientIDs, o.ClientID) {
		return false
	}
	return true
}

func sameNumber(order *domain.Order) func(*domain.Order) bool {
	return func(o *domain.Order) bool {
		return order.Number != "" && o.TenantID == order.TenantID && o.Number == order.Number
	}
}
