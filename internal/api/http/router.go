package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/processflow/internal/api/http/handlers"
	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Stages         *handlers.StagesHandler
	Clients        *handlers.ClientsHandler
	Orders         *handlers.OrdersHandler
	Notifications  *handlers.NotificationsHandler
	Chat           *handlers.ChatHandler
	Dashboard      *handlers.DashboardHandler
	Reports        *handlers.ReportsHandler
	Tenant         *handlers.TenantHandler
	Activity       *handlers.ActivityHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   *auth.LoginLimiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Permission checks are repeated inside the
// services; the route guards reject early.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	if cfg.LoginLimiter != nil {
		authGroup.Post("/login", cfg.LoginLimiter.Handle, cfg.Auth.Login)
	} else {
		authGroup.Post("/login", cfg.Auth.Login)
	}
	session := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	session.Post("/logout", cfg.Auth.Logout)
	session.Get("/me", cfg.Auth.Me)
	session.Post("/password", cfg.Auth.ChangePassword)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	users := api.Group("/users")
	users.Get("/", auth.RequirePermission(auth.PermUsersView), cfg.Users.List)
	users.Post("/", auth.RequirePermission(auth.PermUsersCreate), cfg.Users.Create)
	users.Get("/:id", auth.RequirePermission(auth.PermUsersView), cfg.Users.Get)
	users.Patch("/:id", auth.RequirePermission(auth.PermUsersEdit), cfg.Users.Update)
	users.Delete("/:id", auth.RequirePermission(auth.PermUsersDelete), cfg.Users.Delete)
	users.Put("/:id/password", auth.RequirePermission(auth.PermUsersEdit), cfg.Users.SetPassword)

	stages := api.Group("/stages")
	stages.Get("/", cfg.Stages.List)
	stages.Post("/", auth.RequirePermission(auth.PermStagesCreate), cfg.Stages.Create)
	stages.Put("/order", auth.RequirePermission(auth.PermStagesReorder), cfg.Stages.Reorder)
	stages.Patch("/:id", auth.RequirePermission(auth.PermStagesEdit), cfg.Stages.Update)
	stages.Delete("/:id", auth.RequirePermission(auth.PermStagesDelete), cfg.Stages.Delete)

	clients := api.Group("/clients")
	clients.Get("/", auth.RequirePermission(auth.PermClientsView), cfg.Clients.List)
	clients.Post("/", auth.RequirePermission(auth.PermClientsCreate), cfg.Clients.Create)
	clients.Get("/:id", auth.RequirePermission(auth.PermClientsView), cfg.Clients.Get)
	clients.Patch("/:id", auth.RequirePermission(auth.PermClientsEdit), cfg.Clients.Update)
	clients.Delete("/:id", auth.RequirePermission(auth.PermClientsDelete), cfg.Clients.Delete)

	orders := api.Group("/orders")
	orders.Get("/", auth.RequirePermission(auth.PermOrdersView), cfg.Orders.List)
	orders.Post("/", auth.RequirePermission(auth.PermOrdersCreate), cfg.Orders.Create)
	orders.Get("/:id", auth.RequirePermission(auth.PermOrdersView), cfg.Orders.Get)
	orders.Patch("/:id", auth.RequirePermission(auth.PermOrdersEdit), cfg.Orders.Update)
	orders.Delete("/:id", auth.RequirePermission(auth.PermOrdersDelete), cfg.Orders.Delete)
	orders.Post("/:id/move", auth.RequirePermission(auth.PermOrdersMove, auth.PermOrdersFinalize), cfg.Orders.Move)
	orders.Get("/:id/history", auth.RequirePermission(auth.PermOrdersView), cfg.Orders.History)

	notifications := api.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	chat := api.Group("/chat")
	chat.Get("/conversations", cfg.Chat.Conversations)
	chat.Post("/conversations/:id/read", cfg.Chat.MarkConversationRead)
	chat.Get("/clients/:clientId/messages", cfg.Chat.Messages)
	chat.Post("/clients/:clientId/messages", cfg.Chat.Send)
	chat.Post("/messages/:id/read", cfg.Chat.MarkMessageRead)

	api.Get("/dashboard", auth.RequirePermission(auth.PermOrdersView), cfg.Dashboard.Get)
	api.Post("/reports", auth.RequirePermission(auth.PermReportsAll, auth.PermReportsSector), cfg.Reports.Generate)

	api.Get("/tenant", cfg.Tenant.Get)
	api.Patch("/tenant/branding", auth.RequirePermission(auth.PermBrandingEdit), cfg.Tenant.UpdateBranding)
	api.Get("/settings", cfg.Tenant.Settings)
	api.Put("/settings", auth.RequirePermission(auth.PermSettingsEdit), cfg.Tenant.UpdateSettings)

	api.Get("/activity", auth.RequirePermission(auth.PermLogsView), cfg.Activity.Recent)
}
