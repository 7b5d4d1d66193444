package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/config"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/repository"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

// MetricsOptions carries the configured goals and placeholder rates.
type MetricsOptions struct {
	StageTarget       int
	AverageCycleDays  float64
	LeadConversionPct float64
}

// MetricsOptionsFrom maps the pipeline configuration.
func MetricsOptionsFrom(cfg config.ProcessFlowConfig) MetricsOptions {
	return MetricsOptions{
		StageTarget:       cfg.StageTarget,
		AverageCycleDays:  cfg.AverageCycleDays,
		LeadConversionPct: cfg.LeadConversionPct,
	}
}

// ComputeDashboardMetrics derives the dashboard snapshot from orders and
// stages. Orders in a terminal stage count as completed; everything else is active.
func ComputeDashboardMetrics(tenantID string, orders []domain.Order, stages []domain.Stage, now time.Time, opts MetricsOptions) domain.DashboardMetrics {
	terminal := make(map[string]bool, len(stages))
	for _, st := range stages {
		terminal[st.ID] = st.IsTerminal
	}

	m := domain.DashboardMetrics{
		TenantID:          tenantID,
		TotalOrders:       len(orders),
		MonthRevenue:      decimal.Zero,
		AverageCycleDays:  opts.AverageCycleDays,
		LeadConversionPct: opts.LeadConversionPct,
		ComputedAt:        now,
	}
	count := make(map[string]int, len(stages))
	dwell := make(map[string]float64, len(stages))
	year, month, _ := now.Date()
	for i := range orders {
		o := &orders[i]
		if !terminal[o.CurrentStageID] {
			m.ActiveOrders++
		}
		if o.IsOverdue(now) {
			m.OverdueOrders++
		}
		if y, mo, _ := o.SaleDate.Date(); y == year && mo == month {
			m.MonthRevenue = m.MonthRevenue.Add(o.TotalValue)
		}
		count[o.CurrentStageID]++
		dwell[o.CurrentStageID] += now.Sub(o.StageSince()).Hours() / 24
	}
	m.CompletedOrders = m.TotalOrders - m.ActiveOrders

	m.Bottlenecks = make([]domain.StageBottleneck, 0, len(stages))
	m.Targets = make([]domain.StageTarget, 0, len(stages))
	for _, st := range stages {
		n := count[st.ID]
		avg := 0.0
		if n > 0 {
			avg = roundTenth(dwell[st.ID] / float64(n))
		}
		m.Bottlenecks = append(m.Bottlenecks, domain.StageBottleneck{
			StageID:     st.ID,
			StageName:   st.Name,
			Count:       n,
			AverageDays: avg,
		})
		pct := 0.0
		if opts.StageTarget > 0 {
			pct = roundTenth(float64(n) / float64(opts.StageTarget) * 100)
		}
		m.Targets = append(m.Targets, domain.StageTarget{
			StageID: st.ID,
			Target:  opts.StageTarget,
			Current: n,
			Percent: pct,
		})
	}
	return m
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// MetricsService caches the last dashboard snapshot per tenant and
// recomputes it after every order or stage mutation.
type MetricsService struct {
	mu         sync.RWMutex
	snapshots  map[string]domain.DashboardMetrics
	orders     repository.OrderRepository
	stages     repository.StageRepository
	dispatcher events.Dispatcher
	recorder   Recorder
	logger     *zap.Logger
	opts       MetricsOptions
	now        Clock
}

// MetricsDependencies bundles the metrics service collaborators.
type MetricsDependencies struct {
	OrderRepo  repository.OrderRepository
	StageRepo  repository.StageRepository
	Dispatcher events.Dispatcher
	Recorder   Recorder
	Logger     *zap.Logger
	Clock      Clock
}

// NewMetricsService constructs the service.
func NewMetricsService(opts MetricsOptions, deps MetricsDependencies) *MetricsService {
	return &MetricsService{
		snapshots:  make(map[string]domain.DashboardMetrics),
		orders:     deps.OrderRepo,
		stages:     deps.StageRepo,
		dispatcher: deps.Dispatcher,
		recorder:   recorderOrNop(deps.Recorder),
		logger:     loggerOrNop(deps.Logger),
		opts:       opts,
		now:        clockOrNow(deps.Clock),
	}
}

// RegisterHandlers recomputes on order and stage events.
func (s *MetricsService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventOrderCreated, events.EventOrderUpdated, events.EventOrderDeleted, events.EventOrderMoved,
		events.EventStageCreated, events.EventStageUpdated, events.EventStageDeleted,
	} {
		s.dispatcher.Subscribe(t, s.handleChange)
	}
}

func (s *MetricsService) handleChange(ctx context.Context, event events.Event) error {
	if _, err := s.Refresh(ctx, event.TenantID); err != nil {
		s.logger.Warn("dashboard refresh failed", zap.String("tenant_id", event.TenantID), zap.Error(err))
		return err
	}
	return nil
}

// Refresh recomputes and caches the tenant snapshot.
func (s *MetricsService) Refresh(ctx context.Context, tenantID string) (domain.DashboardMetrics, error) {
	snapshot, err := s.compute(ctx, tenantID, repository.OrderFilter{TenantID: tenantID})
	if err != nil {
		return domain.DashboardMetrics{}, err
	}
	s.mu.Lock()
	s.snapshots[tenantID] = snapshot
	s.mu.Unlock()
	s.recorder.ObserveDashboard(snapshot)
	return snapshot, nil
}

// Dashboard returns the metrics visible to the actor. Readers get a
// snapshot computed over their linked clients only.
func (s *MetricsService) Dashboard(ctx context.Context, actor *domain.User) (domain.DashboardMetrics, error) {
	if err := authorize(actor, auth.PermOrdersView); err != nil {
		return domain.DashboardMetrics{}, err
	}
	if linked, restricted := clientScope(actor); restricted {
		return s.compute(ctx, actor.TenantID, repository.OrderFilter{
			TenantID:        actor.TenantID,
			RestrictClients: true,
			ClientIDs:       linked,
		})
	}
	s.mu.RLock()
	snapshot, ok := s.snapshots[actor.TenantID]
	s.mu.RUnlock()
	if ok {
		return snapshot, nil
	}
	return s.Refresh(ctx, actor.TenantID)
}

func (s *MetricsService) compute(ctx context.Context, tenantID string, filter repository.OrderFilter) (domain.DashboardMetrics, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.DashboardMetrics{}, apperrors.MapError(err)
	}
	stages, err := s.stages.ListByTenant(ctx, tenantID)
	if err != nil {
		return domain.DashboardMetrics{}, apperrors.MapError(err)
	}
	return ComputeDashboardMetrics(tenantID, orders, stages, s.now(), s.opts), nil
}
