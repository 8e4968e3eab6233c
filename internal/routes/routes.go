package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/fieldsignal/incident-backend/internal/config"
	"github.com/fieldsignal/incident-backend/internal/handlers"
	"github.com/fieldsignal/incident-backend/internal/middleware"
	"github.com/fieldsignal/incident-backend/internal/services"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	identity *services.IdentityService,
	authHandler *handlers.AuthHandler,
	reportHandler *handlers.ReportHandler,
	healthHandler *handlers.HealthHandler,
) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Welcome to " + cfg.AppName})
	})

	app.Get("/health/", healthHandler.Check)

	// Auth — stricter rate limit: 10 req/min per IP
	auth := app.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/phone", authHandler.PhoneLogin)
	auth.Post("/revoke", middleware.RequireAuth(identity), authHandler.Revoke)

	// Reports — submission allows anonymous callers, supervisor endpoints
	// use the placeholder supervisor identity.
	reports := app.Group("/reports")
	reports.Post("/", middleware.OptionalAuth(identity), reportHandler.Submit)
	reports.Get("/", middleware.SupervisorIdentity(), reportHandler.List)
	reports.Patch("/:id/status", middleware.SupervisorIdentity(), reportHandler.UpdateStatus)
	reports.Get("/:id/status", middleware.SupervisorIdentity(), reportHandler.GetStatus)
}
