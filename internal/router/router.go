package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nbgrade/nbgrade-api/internal/config"
	"github.com/nbgrade/nbgrade-api/internal/handler"
	"github.com/nbgrade/nbgrade-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	NotebookHandler      *handler.NotebookHandler
	TranscriptionHandler *handler.TranscriptionHandler
	GradingHandler       *handler.GradingHandler
	JWTMiddleware        fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.NotebookHandler != nil {
		notebooks := api.Group("/notebooks", jwtMiddleware)
		deps.NotebookHandler.Register(notebooks)
	}

	if deps.TranscriptionHandler != nil {
		videos := api.Group("/videos", jwtMiddleware)
		deps.TranscriptionHandler.Register(videos)
	}

	if deps.GradingHandler != nil {
		gradings := api.Group("/gradings", jwtMiddleware)
		deps.GradingHandler.Register(gradings)
	}
}
