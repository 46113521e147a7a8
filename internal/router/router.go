package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/arena-go-api/internal/config"
	"github.com/noah-isme/arena-go-api/internal/handler"
	"github.com/noah-isme/arena-go-api/internal/middleware"
	"github.com/noah-isme/arena-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ContestHandler       *handler.ContestHandler
	ParticipationHandler *handler.ParticipationHandler
	LeaderboardHandler   *handler.LeaderboardHandler
	AdminContestHandler  *handler.AdminContestHandler
	JWTMiddleware        fiber.Handler
	JWTOptional          fiber.Handler
	JoinRateLimiter      fiber.Handler
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

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	jwtOptional := deps.JWTOptional
	if jwtOptional == nil {
		jwtOptional = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public catalog and leaderboards: anonymous callers see NORMAL contests.
	if deps.ContestHandler != nil {
		catalog := app.Group("/api/v2/contests", jwtOptional)
		deps.ContestHandler.Register(catalog)

		if deps.LeaderboardHandler != nil {
			deps.LeaderboardHandler.Register(catalog)
		}
	}

	// Participation protocol requires an authenticated identity.
	if deps.ParticipationHandler != nil {
		participation := app.Group("/api/v2/contests", jwtMiddleware)
		deps.ParticipationHandler.Register(participation, deps.JoinRateLimiter)
	}

	// Administration
	if deps.AdminContestHandler != nil {
		admin := app.Group("/api/v2/admin/contests", jwtMiddleware, middleware.RequireRole("admin"))
		deps.AdminContestHandler.Register(admin)
	}
}
