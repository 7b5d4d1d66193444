package worker

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/processflow/internal/config"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/repository"
	"github.com/spec-kit/processflow/internal/seed"
	"github.com/spec-kit/processflow/internal/service"
)

var fixedNow = time.Date(2024, 2, 12, 12, 0, 0, 0, time.UTC)

type fixture struct {
	stores        seed.Stores
	dispatcher    events.Dispatcher
	notifications *service.NotificationService
	orders        *service.OrderService
	metrics       *service.MetricsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	f := &fixture{
		stores: seed.Stores{
			Tenants:       repository.NewMemoryTenantRepository(),
			Users:         repository.NewMemoryUserRepository(),
			Clients:       repository.NewMemoryClientRepository(),
			Stages:        repository.NewMemoryStageRepository(),
			Orders:        repository.NewMemoryOrderRepository(),
			Notifications: repository.NewMemoryNotificationRepository(),
		},
		dispatcher: events.NewInMemoryDispatcher(nil),
	}
	_, err := seed.Load(context.Background(), f.stores, seed.Options{BcryptCost: bcrypt.MinCost, Now: fixedNow})
	require.NoError(t, err)

	f.notifications = service.NewNotificationService(config.NotificationConfig{}, service.NotificationDependencies{
		NotificationRepo: f.stores.Notifications,
		UserRepo:         f.stores.Users,
		OrderRepo:        f.stores.Orders,
		StageRepo:        f.stores.Stages,
		TenantRepo:       f.stores.Tenants,
		Dispatcher:       f.dispatcher,
		Clock:            clock,
	})
	f.orders = service.NewOrderService(service.OrderDependencies{
		OrderRepo:  f.stores.Orders,
		StageRepo:  f.stores.Stages,
		ClientRepo: f.stores.Clients,
		UserRepo:   f.stores.Users,
		TenantRepo: f.stores.Tenants,
		Notifier:   f.notifications,
		Dispatcher: f.dispatcher,
		Clock:      clock,
	})
	f.metrics = service.NewMetricsService(service.MetricsOptions{StageTarget: 10}, service.MetricsDependencies{
		OrderRepo:  f.stores.Orders,
		StageRepo:  f.stores.Stages,
		Dispatcher: f.dispatcher,
		Clock:      clock,
	})
	return f
}

func (f *fixture) mover(email string, seedValue int64) *DemoMover {
	return NewDemoMover(DemoMoverDependencies{
		Orders:     f.orders,
		OrderRepo:  f.stores.Orders,
		StageRepo:  f.stores.Stages,
		UserRepo:   f.stores.Users,
		ActorEmail: email,
		Interval:   time.Minute,
		Rand:       rand.New(rand.NewSource(seedValue)),
	})
}

func TestScanner_ScanOnceSkipsInactiveTenants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scanner := NewScanner(f.notifications, f.stores.Tenants, time.Minute, nil)

	assert.Equal(t, 3, scanner.ScanOnce(ctx))
	assert.Zero(t, scanner.ScanOnce(ctx))

	tenant, err := f.stores.Tenants.GetByID(ctx, seed.TenantID)
	require.NoError(t, err)
	tenant.Active = false
	require.NoError(t, f.stores.Tenants.Update(ctx, tenant))
	assert.Zero(t, scanner.ScanOnce(ctx))
}

func TestScanner_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	scanner := NewScanner(f.notifications, f.stores.Tenants, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scanner.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop")
	}
}

func TestDemoMover_MoveOnceRecordsAutomaticMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := map[string]domain.Order{}
	orders, err := f.stores.Orders.List(ctx, repository.OrderFilter{TenantID: seed.TenantID})
	require.NoError(t, err)
	for _, o := range orders {
		before[o.ID] = o
	}

	moved, err := f.mover("admin@processflow.com", 42).MoveOnce(ctx)
	require.NoError(t, err)

	prev := before[moved.ID]
	assert.NotEqual(t, prev.CurrentStageID, moved.CurrentStageID)
	require.Len(t, moved.History, len(prev.History)+1)
	last, _ := moved.LastMovement()
	assert.True(t, last.Automatic)
	assert.Equal(t, demoMoveComment, last.Comment)
	assert.Equal(t, seed.UserAdmin, last.ActorID)
	assert.Equal(t, prev.CurrentStageID, last.PreviousStageID)
}

func TestDemoMover_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.mover("ninguem@processflow.com", 1).MoveOnce(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	for _, id := range []string{"processo-001", "processo-002", "processo-003", "processo-004", "processo-005"} {
		require.NoError(t, f.stores.Orders.Delete(ctx, id))
	}
	_, err = f.mover("admin@processflow.com", 1).MoveOnce(ctx)
	assert.ErrorIs(t, err, ErrNothingToMove)
}

func TestDestinations_RespectsAllowedNextAndActive(t *testing.T) {
	stages := []domain.Stage{
		{ID: "a", Active: true, AllowedNext: []string{"c"}},
		{ID: "b", Active: true},
		{ID: "c", Active: true},
		{ID: "d", Active: false},
	}
	ids := func(list []domain.Stage) []string {
		out := make([]string, 0, len(list))
		for _, st := range list {
			out = append(out, st.ID)
		}
		return out
	}
	assert.Equal(t, []string{"c"}, ids(destinations("a", stages)))
	assert.Equal(t, []string{"a", "c"}, ids(destinations("b", stages)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(destinations("gone", stages)))
}

func TestStartNotificationWorker_WiresSinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	activity := events.NewActivityLog(10)
	StartNotificationWorker(f.dispatcher, Sinks{
		Notifications: f.notifications,
		Metrics:       f.metrics,
		ActivityLog:   activity,
	})

	admin, err := f.stores.Users.GetByID(ctx, seed.UserAdmin)
	require.NoError(t, err)
	_, err = f.orders.Move(ctx, admin, "processo-004", service.MoveInput{TargetStageID: seed.StageSale})
	require.NoError(t, err)

	recent := activity.Recent(seed.TenantID, 5)
	require.Len(t, recent, 1)
	assert.Equal(t, events.EventOrderMoved, recent[0].Type)

	snapshot, err := f.metrics.Dashboard(ctx, admin)
	require.NoError(t, err)
	for _, b := range snapshot.Bottlenecks {
		switch b.StageID {
		case seed.StageLead:
			assert.Zero(t, b.Count)
		case seed.StageSale:
			assert.Equal(t, 2, b.Count)
		}
	}

	StartNotificationWorker(nil, Sinks{ActivityLog: activity})
}
