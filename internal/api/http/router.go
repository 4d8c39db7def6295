package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bowmeow/session-token/internal/api/http/handlers"
	"github.com/bowmeow/session-token/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tokens         *handlers.TokensHandler
	AuthMiddleware *auth.AuthMiddleware
	// IssueEnabled exposes POST /tokens. Keep it off on verifying-only deployments.
	IssueEnabled bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/metrics", cfg.Health.Metrics)

	tokens := app.Group("/tokens")
	if cfg.IssueEnabled {
		tokens.Post("", cfg.Tokens.Issue)
	}
	tokens.Post("/validate", cfg.Tokens.Validate)
	tokens.Post("/introspect", cfg.Tokens.Introspect)

	app.Get("/session", cfg.AuthMiddleware.Handle, cfg.Tokens.Session)
}
