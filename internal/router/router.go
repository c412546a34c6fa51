package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/mathieu-neron/adwatch/internal/handler"
	"github.com/mathieu-neron/adwatch/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health       *handler.HealthHandler
	Session      *handler.SessionHandler
	Campaign     *handler.CampaignHandler
	Reward       *handler.RewardHandler
	Withdrawal   *handler.WithdrawalHandler
	Presentation *handler.PresentationHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
// The caller owns limits and stops them on shutdown.
func Setup(app *fiber.App, h *Handlers, limits *middleware.RateLimits, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	app.Get("/metrics", handler.MetricsHandler())
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)

	api := app.Group("/api")
	user := middleware.RequireUser()

	api.Get("/campaigns", limits.Campaign.Handler(), h.Campaign.ListActive)

	sessionLimit := limits.Session.Handler()
	api.Post("/sessions", user, sessionLimit, h.Session.Open)
	api.Delete("/sessions", user, sessionLimit, h.Session.Close)
	api.Get("/wallet", user, h.Session.Wallet)

	api.Post("/rewards/claim", user, limits.Claim.Handler(), h.Reward.Claim)
	api.Post("/withdrawals", user, limits.Withdrawal.Handler(), h.Withdrawal.Withdraw)

	api.Get("/presentation", user, h.Presentation.Get)
	api.Post("/presentation/dismiss", user, h.Presentation.Dismiss)
}
