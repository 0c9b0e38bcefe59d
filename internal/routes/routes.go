package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	matchHandler *handlers.MatchHandler,
	notificationHandler *handlers.NotificationHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// JWT is applied per group so it never runs for public routes
	jwt := middleware.JWTProtected(cfg)

	// Report creation fans out to the embedding and judge providers, so it
	// gets a stricter limit: 10 req/min per IP
	createLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})

	reports := api.Group("/reports", jwt)
	reports.Post("/", createLimit, reportHandler.Create)
	reports.Get("/", reportHandler.ListMine)
	reports.Get("/:id", reportHandler.Get)
	reports.Delete("/:id", reportHandler.Delete)
	reports.Post("/:id/returned", reportHandler.MarkReturned)
	reports.Get("/:id/potential-matches", reportHandler.PotentialMatches)

	matches := api.Group("/matches", jwt)
	matches.Get("/", matchHandler.List)
	matches.Get("/:id", matchHandler.Get)
	matches.Post("/:id/confirm", matchHandler.Confirm)
	matches.Post("/:id/reject", matchHandler.Reject)
	api.Post("/claims", jwt, matchHandler.Claim)

	notifications := api.Group("/notifications", jwt)
	notifications.Get("/", notificationHandler.List)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
	notifications.Delete("/:id", notificationHandler.Delete)

	// Admin (protected + admin required)
	admin := api.Group("/admin", jwt, middleware.AdminRequired(cfg))
	admin.Post("/reports/:id/rescan", reportHandler.Rescan)
}
