package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/eybms-go-api/internal/config"
	"github.com/noah-isme/eybms-go-api/internal/handler"
	"github.com/noah-isme/eybms-go-api/internal/middleware"
	"github.com/noah-isme/eybms-go-api/internal/models"
	"github.com/noah-isme/eybms-go-api/internal/observability"
	"github.com/noah-isme/eybms-go-api/internal/service"
	"github.com/noah-isme/eybms-go-api/internal/session"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	Sessions        session.Store
	Recorder        service.ActivityRecorder
	AuthHandler     *handler.AuthHandler
	AccountHandler  *handler.AccountHandler
	ConsentHandler  *handler.ConsentHandler
	YearbookHandler *handler.YearbookHandler
	ActivityHandler *handler.ActivityHandler
	HealthProbes    map[string]handler.HealthProbe
	Logger          zerolog.Logger
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	app.Get("/metrics", observability.MetricsHandler())

	if deps.Sessions != nil {
		app.Use(middleware.LoadSession(deps.Sessions, cfg.SessionCookieName, deps.Logger))
	}

	gate := middleware.NewGate(deps.Recorder)

	// browser pages below these prefixes need a session with the matching role
	app.Use(gate.Pages("/admin", models.AccountTypeAdmin))
	app.Use(gate.Pages("/student", models.AccountTypeStudent))
	app.Use(gate.Pages("/committee", models.AccountTypeCommittee))
	app.Use(gate.Pages("/consent", models.AccountTypeStudent))

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(app, gate, middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow))
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.Register(app, gate)
	}
	if deps.ConsentHandler != nil {
		deps.ConsentHandler.Register(app, gate)
	}
	if deps.YearbookHandler != nil {
		deps.YearbookHandler.Register(app, gate)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(app, gate)
	}

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}
}
