package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/processflow/internal/api/http/handlers"
	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/config"
	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/observability"
	"github.com/spec-kit/processflow/internal/repository"
	"github.com/spec-kit/processflow/internal/seed"
	"github.com/spec-kit/processflow/internal/service"
)

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	stores := seed.Stores{
		Tenants:       repository.NewMemoryTenantRepository(),
		Users:         repository.NewMemoryUserRepository(),
		Clients:       repository.NewMemoryClientRepository(),
		Stages:        repository.NewMemoryStageRepository(),
		Orders:        repository.NewMemoryOrderRepository(),
		Notifications: repository.NewMemoryNotificationRepository(),
	}
	_, err := seed.Load(ctx, stores, seed.Options{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	chatRepo := repository.NewMemoryChatRepository()
	dispatcher := events.NewInMemoryDispatcher(nil)
	activityLog := events.NewActivityLog(50)
	metrics := observability.NewMetrics()
	opts := service.MetricsOptions{StageTarget: 10}

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "router-test", AccessTokenTTLMinutes: 15, BcryptCost: bcrypt.MinCost},
		service.AuthDependencies{UserRepo: stores.Users, Dispatcher: dispatcher})
	notificationService := service.NewNotificationService(config.NotificationConfig{}, service.NotificationDependencies{
		NotificationRepo: stores.Notifications,
		UserRepo:         stores.Users,
		OrderRepo:        stores.Orders,
		StageRepo:        stores.Stages,
		TenantRepo:       stores.Tenants,
		Dispatcher:       dispatcher,
	})
	lock := service.NewStoreLock()
	orderService := service.NewOrderService(service.OrderDependencies{
		Lock:       lock,
		OrderRepo:  stores.Orders,
		StageRepo:  stores.Stages,
		ClientRepo: stores.Clients,
		UserRepo:   stores.Users,
		TenantRepo: stores.Tenants,
		Notifier:   notificationService,
		Dispatcher: dispatcher,
	})
	chatService := service.NewChatService(service.ChatDependencies{ChatRepo: chatRepo, ClientRepo: stores.Clients, Dispatcher: dispatcher})
	clientService := service.NewClientService(service.ClientDependencies{
		Lock:       lock,
		ClientRepo: stores.Clients,
		OrderRepo:  stores.Orders,
		Renamers:   []service.ClientRenamer{orderService, chatService},
		Dispatcher: dispatcher,
	})
	userService := service.NewUserService(service.UserDependencies{
		Lock:       lock,
		UserRepo:   stores.Users,
		ClientRepo: stores.Clients,
		OrderRepo:  stores.Orders,
		TenantRepo: stores.Tenants,
		BcryptCost: bcrypt.MinCost,
		Dispatcher: dispatcher,
	})
	stageService := service.NewStageService(service.StageDependencies{Lock: lock, StageRepo: stores.Stages, OrderRepo: stores.Orders, Dispatcher: dispatcher})
	metricsService := service.NewMetricsService(opts, service.MetricsDependencies{OrderRepo: stores.Orders, StageRepo: stores.Stages, Dispatcher: dispatcher})
	tenantService := service.NewTenantService(service.TenantDependencies{TenantRepo: stores.Tenants, Dispatcher: dispatcher})
	reportService := service.NewReportService(opts, service.ReportDependencies{
		OrderRepo:  stores.Orders,
		StageRepo:  stores.Stages,
		UserRepo:   stores.Users,
		TenantRepo: stores.Tenants,
		Dispatcher: dispatcher,
	})
	dispatcher.SubscribeAll(activityLog.Record)

	validate := handlers.NewValidator()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("processflow", "test", nil, nil),
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
		Activity:       handlers.NewActivityHandler(service.NewActivityService(activityLog)),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), stores.Users),
		Metrics:        metrics,
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path, token string, body any) (int, []byte, http.Header) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data, resp.Header
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	status, body, _ := do(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var out struct {
		Data struct {
			User struct {
				ID          string   `json:"id"`
				Permissions []string `json:"permissions"`
			} `json:"user"`
			Auth struct {
				Token string `json:"token"`
			} `json:"auth"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Data.Auth.Token)
	assert.NotEmpty(t, out.Data.User.Permissions)
	return out.Data.Auth.Token
}

func decodeError(t *testing.T, body []byte) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	status, body, _ := do(t, app, fiber.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"ready","dependencies":{"postgres":"disabled","redis":"disabled"}}`, string(body))

	status, body, _ = do(t, app, fiber.MethodGet, "/metrics", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "http_in_flight_requests")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	app := newTestApp(t)

	status, body, _ := do(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "admin@processflow.com", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	e := decodeError(t, body)
	assert.Equal(t, "UNAUTHORIZED", e.Error.Code)
	assert.Equal(t, "invalid credentials", e.Error.Message)

	status, body, _ = do(t, app, fiber.MethodPost, "/auth/login", "", map[string]string{"email": "admin@processflow.com"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	e = decodeError(t, body)
	assert.Equal(t, "VALIDATION_FAILED", e.Error.Code)
	assert.Equal(t, map[string]any{"password": "required"}, e.Error.Details["fields"])
}

func TestOrders_ListScopedByRole(t *testing.T) {
	app := newTestApp(t)

	status, _, _ := do(t, app, fiber.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	for _, tc := range []struct {
		email, password string
		total           int
	}{
		{"admin@processflow.com", "admin", 5},
		{"cliente@processflow.com", "cliente", 2},
	} {
		token := login(t, app, tc.email, tc.password)
		status, body, _ := do(t, app, fiber.MethodGet, "/api/v1/orders?page_size=1", token, nil)
		require.Equal(t, fiber.StatusOK, status, string(body))
		var out struct {
			Data struct {
				Items    []map[string]any `json:"items"`
				Total    int              `json:"total"`
				PageSize int              `json:"page_size"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, tc.total, out.Data.Total, tc.email)
		assert.Len(t, out.Data.Items, 1)
		assert.Equal(t, 1, out.Data.PageSize)
	}
}

func TestOrders_MoveGuardsAndValidation(t *testing.T) {
	app := newTestApp(t)

	reader := login(t, app, "cliente@processflow.com", "cliente")
	status, body, _ := do(t, app, fiber.MethodPost, "/api/v1/orders/processo-001/move", reader, map[string]string{"stage_id": seed.StageDelivery})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", decodeError(t, body).Error.Code)

	operator := login(t, app, "operador@processflow.com", "operador")
	status, body, _ = do(t, app, fiber.MethodPost, "/api/v1/orders/processo-001/move", operator, map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, map[string]any{"stage_id": "required"}, decodeError(t, body).Error.Details["fields"])

	status, body, _ = do(t, app, fiber.MethodPost, "/api/v1/orders/processo-001/move", operator,
		map[string]string{"stage_id": seed.StageDelivery, "comment": "Entregue ao cliente"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	var moved struct {
		Data struct {
			CurrentStageID string `json:"current_stage_id"`
			Location       string `json:"location"`
			DeliveredAt    string `json:"delivered_at"`
			History        []struct {
				Comment string `json:"comment"`
			} `json:"history"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &moved))
	assert.Equal(t, seed.StageDelivery, moved.Data.CurrentStageID)
	assert.Equal(t, "entregue", moved.Data.Location)
	assert.NotEmpty(t, moved.Data.DeliveredAt)
	require.Len(t, moved.Data.History, 5)
	assert.Equal(t, "Entregue ao cliente", moved.Data.History[4].Comment)

	admin := login(t, app, "admin@processflow.com", "admin")
	status, body, _ = do(t, app, fiber.MethodGet, "/api/v1/notifications", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "foi finalizado pelo operador Maria Operadora")
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	app := newTestApp(t)
	status, body, _ := do(t, app, fiber.MethodGet, "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decodeError(t, body).Error.Code)

	token := login(t, app, "admin@processflow.com", "admin")
	status, body, _ = do(t, app, fiber.MethodGet, "/api/v1/orders/processo-999", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decodeError(t, body).Error.Code)
}

func TestReports_CSVAttachment(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app, "supervisor@processflow.com", "supervisor")

	status, body, header := do(t, app, fiber.MethodPost, "/api/v1/reports", token, map[string]string{"kind": "vendas", "format": "csv"})
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, "text/csv; charset=utf-8", header.Get(fiber.HeaderContentType))
	disposition := header.Get(fiber.HeaderContentDisposition)
	assert.True(t, strings.HasPrefix(disposition, `attachment; filename="relatorio-vendas-`), disposition)
	assert.True(t, strings.HasPrefix(string(body), "Vendedor;Pedidos;Faturamento;Ticket Médio"))

	operator := login(t, app, "operador@processflow.com", "operador")
	status, _, _ = do(t, app, fiber.MethodPost, "/api/v1/reports", operator, map[string]string{"kind": "vendas"})
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestSettingsAndActivity(t *testing.T) {
	app := newTestApp(t)
	admin := login(t, app, "admin@processflow.com", "admin")
	operator := login(t, app, "operador@processflow.com", "operador")

	status, body, _ := do(t, app, fiber.MethodGet, "/api/v1/settings", operator, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"frequency":"weekly"`)

	status, _, _ = do(t, app, fiber.MethodPut, "/api/v1/settings", operator, map[string]any{})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body, _ = do(t, app, fiber.MethodGet, "/api/v1/activity?limit=10", admin, nil)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Contains(t, string(body), string(events.EventUserLoggedIn))
}
