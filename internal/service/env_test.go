package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/processflow/internal/config"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/repository"
	"github.com/spec-kit/processflow/internal/seed"
)

var testNow = time.Date(2024, 2, 12, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	tenants       repository.TenantRepository
	users         repository.UserRepository
	clients       repository.ClientRepository
	stages        repository.StageRepository
	orders        repository.OrderRepository
	notifications repository.NotificationRepository
	chat          repository.ChatRepository
	dispatcher    events.Dispatcher
	activity      *events.ActivityLog

	auth        *AuthService
	userSvc     *UserService
	stageSvc    *StageService
	clientSvc   *ClientService
	orderSvc    *OrderService
	notifySvc   *NotificationService
	chatSvc     *ChatService
	metricsSvc  *MetricsService
	tenantSvc   *TenantService
	reportSvc   *ReportService
	activitySvc *ActivityService
	metricsOpts MetricsOptions
}

func clock() time.Time { return testNow }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	env := &testEnv{
		tenants:       repository.NewMemoryTenantRepository(),
		users:         repository.NewMemoryUserRepository(),
		clients:       repository.NewMemoryClientRepository(),
		stages:        repository.NewMemoryStageRepository(),
		orders:        repository.NewMemoryOrderRepository(),
		notifications: repository.NewMemoryNotificationRepository(),
		chat:          repository.NewMemoryChatRepository(),
		dispatcher:    events.NewInMemoryDispatcher(nil),
		activity:      events.NewActivityLog(100),
		metricsOpts:   MetricsOptions{StageTarget: 10, AverageCycleDays: 7, LeadConversionPct: 85},
	}
	_, err := seed.Load(ctx, seed.Stores{
		Tenants:       env.tenants,
		Users:         env.users,
		Clients:       env.clients,
		Stages:        env.stages,
		Orders:        env.orders,
		Notifications: env.notifications,
	}, seed.Options{BcryptCost: bcrypt.MinCost, Now: testNow})
	require.NoError(t, err)

	env.auth = NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 30, BcryptCost: bcrypt.MinCost},
		AuthDependencies{UserRepo: env.users, Dispatcher: env.dispatcher, Clock: clock})
	env.notifySvc = NewNotificationService(config.NotificationConfig{}, NotificationDependencies{
		NotificationRepo: env.notifications,
		UserRepo:         env.users,
		OrderRepo:        env.orders,
		StageRepo:        env.stages,
		TenantRepo:       env.tenants,
		Dispatcher:       env.dispatcher,
		Clock:            clock,
	})
	lock := NewStoreLock()
	env.orderSvc = NewOrderService(OrderDependencies{
		Lock:       lock,
		OrderRepo:  env.orders,
		StageRepo:  env.stages,
		ClientRepo: env.clients,
		UserRepo:   env.users,
		TenantRepo: env.tenants,
		Notifier:   env.notifySvc,
		Dispatcher: env.dispatcher,
		Clock:      clock,
	})
	env.chatSvc = NewChatService(ChatDependencies{ChatRepo: env.chat, ClientRepo: env.clients, Dispatcher: env.dispatcher, Clock: clock})
	env.clientSvc = NewClientService(ClientDependencies{
		Lock:       lock,
		ClientRepo: env.clients,
		OrderRepo:  env.orders,
		Renamers:   []ClientRenamer{env.orderSvc, env.chatSvc},
		Dispatcher: env.dispatcher,
		Clock:      clock,
	})
	env.userSvc = NewUserService(UserDependencies{
		Lock:       lock,
		UserRepo:   env.users,
		ClientRepo: env.clients,
		OrderRepo:  env.orders,
		TenantRepo: env.tenants,
		BcryptCost: bcrypt.MinCost,
		Dispatcher: env.dispatcher,
		Clock:      clock,
	})
	env.stageSvc = NewStageService(StageDependencies{Lock: lock, StageRepo: env.stages, OrderRepo: env.orders, Dispatcher: env.dispatcher, Clock: clock})
	env.metricsSvc = NewMetricsService(env.metricsOpts, MetricsDependencies{
		OrderRepo:  env.orders,
		StageRepo:  env.stages,
		Dispatcher: env.dispatcher,
		Clock:      clock,
	})
	env.tenantSvc = NewTenantService(TenantDependencies{TenantRepo: env.tenants, Dispatcher: env.dispatcher, Clock: clock})
	env.reportSvc = NewReportService(env.metricsOpts, ReportDependencies{
		OrderRepo:  env.orders,
		StageRepo:  env.stages,
		UserRepo:   env.users,
		TenantRepo: env.tenants,
		Dispatcher: env.dispatcher,
		Clock:      clock,
	})
	env.activitySvc = NewActivityService(env.activity)
	env.dispatcher.SubscribeAll(env.activity.Record)
	return env
}

func (e *testEnv) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) order(t *testing.T, id string) *domain.Order {
	t.Helper()
	o, err := e.orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	return o
}
