// Command reminders sends the "reservation starting today" notifications once
// and exits. Use it from cron when the in-server scheduler is disabled.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/office-booking-backend/internal/app"
	"github.com/nekogravitycat/office-booking-backend/internal/config"
	"github.com/nekogravitycat/office-booking-backend/internal/db"
	"github.com/nekogravitycat/office-booking-backend/internal/logging"
	"github.com/nekogravitycat/office-booking-backend/internal/notification"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/daterange"
	"github.com/nekogravitycat/office-booking-backend/internal/reminder"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
)

func main() {
	dayFlag := flag.String("day", "", "day to process (YYYY-MM-DD); defaults to today in TIMEZONE")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	zerolog.DefaultContextLogger = logger
	ctx = logger.WithContext(ctx)

	day := daterange.Today(time.Now().In(cfg.Location))
	if *dayFlag != "" {
		if day, err = daterange.Parse(*dayFlag); err != nil {
			logger.Fatal().Err(err).Msg("invalid -day")
		}
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer pool.Close()

	sender, closer, err := app.NewSender(cfg.Notification, notification.NewRepository(pool), *logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init notification sender")
	}
	if closer != nil {
		defer closer.Close()
	}

	workers := notification.NewWorkerPool(cfg.Notification.Workers, cfg.Notification.QueueSize, sender, notification.DefaultRetryPolicy)
	workers.Start(ctx)

	res, err := reminder.NewJob(reservation.NewPgxRepository(pool), workers).Run(ctx, day)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if stopErr := workers.Stop(stopCtx); stopErr != nil {
		logger.Error().Err(stopErr).Msg("notifications not fully delivered")
	}

	if err != nil {
		logger.Fatal().Err(err).Msg("reminder run failed")
	}
	logger.Info().Int("due", res.Due).Int("failed", res.Failed).Msg("done")
}
