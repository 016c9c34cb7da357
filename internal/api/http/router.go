package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-realtime/internal/api/http/handlers"
	"github.com/spec-kit/crm-realtime/internal/auth"
	"github.com/spec-kit/crm-realtime/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	SLA            *handlers.SLAHandler
	Presence       *handlers.PresenceHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	api.Get("/sla/report",
		auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleManager),
		cfg.SLA.Report)
	api.Get("/presence/:orgID",
		auth.RequireSameOrganization("orgID"),
		cfg.Presence.Count)
}
