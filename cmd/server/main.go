package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/app"
	"github.com/nekogravitycat/office-booking-backend/internal/config"
	"github.com/nekogravitycat/office-booking-backend/internal/db"
	"github.com/nekogravitycat/office-booking-backend/internal/logging"
	"github.com/nekogravitycat/office-booking-backend/internal/metrics"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger, logCloser, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init logger")
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	log.Logger = *logger
	zerolog.DefaultContextLogger = logger
	ctx = logger.WithContext(ctx)

	if cfg.MetricsEnabled {
		metrics.Register()
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate db")
	}

	var redisClient redis.UniversalClient
	if cfg.Lock.Driver == config.LockDriverRedis {
		client, err := db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		redisClient = client
	}

	container, err := app.NewContainer(app.Deps{
		Config: cfg,
		DBPool: pool,
		Redis:  redisClient,
		Logger: *logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}

	// The pool outlives the signal so that Close can drain it.
	container.Notifications.Start(context.WithoutCancel(ctx))
	if container.Reminders != nil {
		go container.Reminders.Start(ctx)
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("lock_driver", cfg.Lock.Driver).
			Str("notification_driver", cfg.Notification.Driver).Msg("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	if err := container.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to drain notifications")
	}

	logger.Info().Msg("server exited gracefully")
}
