package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/processflow/internal/api/http"
	"github.com/spec-kit/processflow/internal/api/http/handlers"
	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/config"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/observability"
	"github.com/spec-kit/processflow/internal/persistence"
	"github.com/spec-kit/processflow/internal/repository"
	"github.com/spec-kit/processflow/internal/seed"
	"github.com/spec-kit/processflow/internal/service"
	"github.com/spec-kit/processflow/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var archive repository.MovementArchive
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		archive = repository.NewMovementArchive(pg.Pool())
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to configure redis", zap.Error(err))
	}
	defer redis.Close()

	tenantRepo := repository.NewMemoryTenantRepository()
	userRepo := repository.NewMemoryUserRepository()
	clientRepo := repository.NewMemoryClientRepository()
	stageRepo := repository.NewMemoryStageRepository()
	orderRepo := repository.NewMemoryOrderRepository()
	notificationRepo := repository.NewMemoryNotificationRepository()
	chatRepo := repository.NewMemoryChatRepository()

	if cfg.ProcessFlow.SeedDemoData {
		sum, err := seed.Load(ctx, seed.Stores{
			Tenants:       tenantRepo,
			Users:         userRepo,
			Clients:       clientRepo,
			Stages:        stageRepo,
			Orders:        orderRepo,
			Notifications: notificationRepo,
		}, seed.Options{
			BcryptCost:       cfg.Auth.BcryptCost,
			FictitiousOrders: cfg.ProcessFlow.FictitiousOrders,
		})
		if err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
		logger.Info("demo data loaded",
			zap.Int("users", sum.Users),
			zap.Int("stages", sum.Stages),
			zap.Int("clients", sum.Clients),
			zap.Int("orders", sum.Orders),
		)
	}

	dispatcher := events.NewInMemoryDispatcher(observability.Named(logger, "events"))
	activityLog := events.NewActivityLog(cfg.ProcessFlow.ActivityLogSize)
	var publisher *events.RedisPublisher
	if redis.Enabled() {
		publisher = events.NewRedisPublisher(redis.Client(), cfg.Redis.EventsChannel, observability.Named(logger, "redis_publisher"))
	}

	metricsOpts := service.MetricsOptionsFrom(cfg.ProcessFlow)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	notificationService := service.NewNotificationService(cfg.Notification, service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		UserRepo:         userRepo,
		OrderRepo:        orderRepo,
		StageRepo:        stageRepo,
		TenantRepo:       tenantRepo,
		Dispatcher:       dispatcher,
		Recorder:         metrics,
		Logger:           observability.Named(logger, "notifications"),
	})
	storeLock := service.NewStoreLock()
	orderService := service.NewOrderService(service.OrderDependencies{
		Lock:       storeLock,
		OrderRepo:  orderRepo,
		StageRepo:  stageRepo,
		ClientRepo: clientRepo,
		UserRepo:   userRepo,
		TenantRepo: tenantRepo,
		Archive:    archive,
		Notifier:   notificationService,
		Dispatcher: dispatcher,
		Recorder:   metrics,
		Logger:     observability.Named(logger, "orders"),
	})
	if archive != nil {
		synced, err := orderService.SyncArchive(ctx)
		if err != nil {
			logger.Fatal("failed to sync movement archive", zap.Error(err))
		}
		logger.Info("movement archive synced", zap.Int("orders", synced))
	}
	chatService := service.NewChatService(service.ChatDependencies{
		ChatRepo:   chatRepo,
		ClientRepo: clientRepo,
		Dispatcher: dispatcher,
	})
	clientService := service.NewClientService(service.ClientDependencies{
		Lock:       storeLock,
		ClientRepo: clientRepo,
		OrderRepo:  orderRepo,
		Renamers:   []service.ClientRenamer{orderService, chatService},
		Dispatcher: dispatcher,
		Logger:     observability.Named(logger, "clients"),
	})
	userService := service.NewUserService(service.UserDependencies{
		Lock:       storeLock,
		UserRepo:   userRepo,
		ClientRepo: clientRepo,
		OrderRepo:  orderRepo,
		TenantRepo: tenantRepo,
		BcryptCost: cfg.Auth.BcryptCost,
		Dispatcher: dispatcher,
	})
	stageService := service.NewStageService(service.StageDependencies{
		Lock:       storeLock,
		StageRepo:  stageRepo,
		OrderRepo:  orderRepo,
		Dispatcher: dispatcher,
	})
	metricsService := service.NewMetricsService(metricsOpts, service.MetricsDependencies{
		OrderRepo:  orderRepo,
		StageRepo:  stageRepo,
		Dispatcher: dispatcher,
		Recorder:   metrics,
		Logger:     observability.Named(logger, "dashboard"),
	})
	tenantService := service.NewTenantService(service.TenantDependencies{
		TenantRepo: tenantRepo,
		Dispatcher: dispatcher,
	})
	reportService := service.NewReportService(metricsOpts, service.ReportDependencies{
		OrderRepo:  orderRepo,
		StageRepo:  stageRepo,
		UserRepo:   userRepo,
		TenantRepo: tenantRepo,
		Dispatcher: dispatcher,
	})
	activityService := service.NewActivityService(activityLog)

	worker.StartNotificationWorker(dispatcher, worker.Sinks{
		Notifications: notificationService,
		Metrics:       metricsService,
		ActivityLog:   activityLog,
		Publisher:     publisher,
	})

	scanner := worker.NewScanner(notificationService, tenantRepo, cfg.Worker.ScannerInterval(), observability.Named(logger, "scanner"))
	go scanner.Run(ctx)

	if cfg.Worker.DemoMoverEnabled {
		mover := worker.NewDemoMover(worker.DemoMoverDependencies{
			Orders:     orderService,
			OrderRepo:  orderRepo,
			StageRepo:  stageRepo,
			UserRepo:   userRepo,
			ActorEmail: cfg.Worker.DemoMoverActorEmail,
			Interval:   cfg.Worker.DemoMoverInterval(),
			Logger:     observability.Named(logger, "demo_mover"),
		})
		go mover.Run(ctx)
	}

	validate := handlers.NewValidator()
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, validate),
		Users:          handlers.NewUsersHandler(userService, validate),
		Stages:         handlers.NewStagesHandler(stageService, validate),
		Clients:        handlers.NewClientsHandler(clientService, validate),
		Orders:         handlers.NewOrdersHandler(orderService, validate),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Chat:           handlers.NewChatHandler(chatService, validate),
		Dashboard:      handlers.NewDashboardHandler(metricsService),
		Reports:        handlers.NewReportsHandler(reportService, validate),
		Tenant:         handlers.NewTenantHandler(tenantService, validate),
		Activity:       handlers.NewActivityHandler(activityService),
		AuthMiddleware: authMiddleware,
		LoginLimiter:   auth.NewLoginLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
