package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/eybms-go-api/internal/config"
	"github.com/noah-isme/eybms-go-api/internal/credential"
	"github.com/noah-isme/eybms-go-api/internal/database"
	"github.com/noah-isme/eybms-go-api/internal/handler"
	"github.com/noah-isme/eybms-go-api/internal/jobs"
	"github.com/noah-isme/eybms-go-api/internal/middleware"
	"github.com/noah-isme/eybms-go-api/internal/repository"
	"github.com/noah-isme/eybms-go-api/internal/router"
	"github.com/noah-isme/eybms-go-api/internal/service"
	"github.com/noah-isme/eybms-go-api/internal/session"
	"github.com/noah-isme/eybms-go-api/pkg/wordpress"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var publisher service.ActivityPublisher
	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, activity fan-out disabled")
	} else if natsConn != nil {
		defer natsConn.Drain()
		publisher = natsConn
	}

	catalogClient, err := wordpress.New(wordpress.Config{
		BaseURL: cfg.CatalogBaseURL,
		Timeout: cfg.CatalogTimeout,
	})
	if err != nil {
		log.Fatalf("failed to create catalog client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	accountRepo := repository.NewAccountRepository(db)
	consentRepo := repository.NewConsentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	yearbookRepo := repository.NewYearbookRepository(db)
	sessionStore := session.NewRedisStore(redisClient, cfg.SessionTTL)

	activityService := service.NewActivityService(activityRepo, publisher, cfg.NATSActivitySubject, logger)
	accountService := service.NewAccountService(accountRepo, credential.New(), validate, activityService, logger)
	consentService := service.NewConsentService(consentRepo, accountRepo, validate, activityService, logger)
	yearbookService := service.NewYearbookService(yearbookRepo, catalogClient, redisClient, cfg.CatalogCacheTTL, activityService, logger)

	if repaired, err := consentService.Reconcile(ctx); err != nil {
		logger.Warn().Err(err).Msg("startup consent reconciliation failed")
	} else if repaired > 0 {
		logger.Info().Int("repaired", repaired).Msg("startup consent reconciliation repaired flags")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.AllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		Sessions: sessionStore,
		Recorder: activityService,
		AuthHandler: handler.NewAuthHandler(accountService, sessionStore, activityService, handler.CookieConfig{
			Name:   cfg.SessionCookieName,
			Secure: cfg.SessionSecureCookie,
			TTL:    cfg.SessionTTL,
		}, logger),
		AccountHandler:  handler.NewAccountHandler(accountService, logger),
		ConsentHandler:  handler.NewConsentHandler(consentService, activityService, logger),
		YearbookHandler: handler.NewYearbookHandler(yearbookService, logger),
		ActivityHandler: handler.NewActivityHandler(activityService, logger),
		HealthProbes: map[string]handler.HealthProbe{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
		Logger: logger,
	})

	syncDone := jobs.StartCatalogSyncJob(ctx, jobs.CatalogSyncConfig{
		Enabled:  cfg.CatalogSyncEnabled,
		Interval: cfg.CatalogSyncInterval,
		Timeout:  cfg.CatalogTimeout * 4,
	}, yearbookService, consentService, logger)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(ctx, app, syncDone, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, jobsDone <-chan struct{}, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-jobsDone:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("catalog sync job still running at shutdown")
	}

	logger.Info().Msg("server stopped")
}
