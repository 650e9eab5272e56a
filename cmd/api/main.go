package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/fitness-tracker-api/internal/config"
	"github.com/noah-isme/fitness-tracker-api/internal/database"
	"github.com/noah-isme/fitness-tracker-api/internal/handler"
	"github.com/noah-isme/fitness-tracker-api/internal/middleware"
	"github.com/noah-isme/fitness-tracker-api/internal/repository"
	"github.com/noah-isme/fitness-tracker-api/internal/router"
	"github.com/noah-isme/fitness-tracker-api/internal/service"
)

const shutdownTimeout = 5 * time.Second

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, analytics cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, entry events stay local")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := service.NewValidator()
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	entryRepo := repository.NewFitnessTestRepository(db)
	remarkRepo := repository.NewRemarkRepository(db)
	adminAccountRepo := repository.NewAdminAccountRepository(db)
	adminStudentRepo := repository.NewAdminStudentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	events := service.NewEntryEventBus(natsConn, cfg.NATSSubject, logger)
	activityService := service.NewActivityService(activityRepo, logger)
	authService := service.NewAuthService(userRepo, studentRepo, tokens, validate, logger)
	adminAuthService := service.NewAdminAuthService(adminAccountRepo, tokens, validate, logger)
	fitnessService := service.NewFitnessTestService(entryRepo, events, validate, logger)
	progressService := service.NewProgressService(fitnessService, remarkRepo, cfg.ChartHeight, logger)
	analyticsService := service.NewClassAnalyticsService(adminStudentRepo, entryRepo, redisClient, cfg.AnalyticsCacheTTL, cfg.ChartHeight, logger)
	adminStudentService := service.NewAdminStudentService(adminStudentRepo, fitnessService, remarkRepo, analyticsService, validate, activityService, logger)
	remarkService := service.NewRemarkService(remarkRepo, studentRepo, entryRepo, validate, activityService, logger)
	exportService := service.NewExportService(adminStudentRepo, entryRepo, activityService, logger)
	liveFeed := service.NewLiveFeedService(redisClient, logger)

	events.Subscribe(service.InvalidateOnSubmit(analyticsService))
	events.Subscribe(liveFeed.HandleEvent)
	events.Start(ctx)

	if err := adminAuthService.EnsureAccount(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("failed to provision admin account")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:           handler.NewAuthHandler(authService, logger),
		StudentHandler:        handler.NewStudentHandler(authService, fitnessService, progressService, analyticsService, logger),
		AdminAuthHandler:      handler.NewAdminAuthHandler(adminAuthService, logger),
		AdminStudentHandler:   handler.NewAdminStudentHandler(adminStudentService, remarkService, logger),
		AdminAnalyticsHandler: handler.NewAdminAnalyticsHandler(analyticsService, exportService, logger),
		AdminActivityHandler:  handler.NewAdminActivityHandler(activityService, logger),
		AdminLiveHandler:      handler.NewAdminLiveHandler(liveFeed, logger),
		HealthProbes:          healthProbes(db, redisClient, natsConn),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(ctx, app, logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return nats.ErrConnectionClosed
			}
			return nil
		}
	}
	return probes
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
