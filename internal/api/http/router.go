package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/campusvoice/ticket-service/internal/api/http/handlers"
	"github.com/campusvoice/ticket-service/internal/auth"
	"github.com/campusvoice/ticket-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	AI             *handlers.AIHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        nethttp.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Post("/:id/escalate", cfg.Tickets.Escalate)
	tickets.Post("/:id/rating", cfg.Tickets.Rate)
	tickets.Get("/:id/escalations", cfg.Tickets.ListEscalations)
	tickets.Post("/:id/reanalyze", auth.RequireHandler(), cfg.Tickets.Reanalyze)
	tickets.Get("/:id/predictions", auth.RequireHandler(), cfg.Tickets.ListPredictions)

	api.Post("/ai/classify", cfg.AI.Classify)

	admin := api.Group("/admin", auth.RequireRole(domain.RoleCampusAdmin, domain.RoleSystemAdmin))
	admin.Post("/sla/sweep", cfg.Admin.RunSweep)
}
