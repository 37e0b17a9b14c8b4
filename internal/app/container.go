package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/office-booking-backend/internal/api"
	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/config"
	"github.com/nekogravitycat/office-booking-backend/internal/file"
	"github.com/nekogravitycat/office-booking-backend/internal/lock"
	"github.com/nekogravitycat/office-booking-backend/internal/notification"
	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/storage"
	"github.com/nekogravitycat/office-booking-backend/internal/reminder"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
	"github.com/nekogravitycat/office-booking-backend/internal/tag"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
)

// Deps holds the already-connected resources the container builds on.
type Deps struct {
	Config *config.Config
	DBPool *pgxpool.Pool
	Redis  redis.UniversalClient // nil unless LOCK_DRIVER=redis
	Logger zerolog.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router        *gin.Engine
	JWTManager    *auth.JWTManager
	Notifications *notification.WorkerPool
	Reminders     *reminder.Scheduler

	closers []io.Closer
}

// NewContainer initializes all modules and returns the container.
func NewContainer(deps Deps) (*Container, error) {
	cfg := deps.Config

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTokenTTL)

	locker, err := NewLocker(cfg.Lock, deps.Redis)
	if err != nil {
		return nil, err
	}

	blobs, err := storage.NewLocalStorage(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	c := &Container{JWTManager: jwtManager}

	// Notification Module
	notificationRepo := notification.NewRepository(deps.DBPool)
	notificationService := notification.NewService(notificationRepo)
	sender, closer, err := NewSender(cfg.Notification, notificationRepo, deps.Logger)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
	c.Notifications = notification.NewWorkerPool(cfg.Notification.Workers, cfg.Notification.QueueSize, sender, notification.DefaultRetryPolicy)

	// User Module
	userRepo := user.NewPgxRepository(deps.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Tag Module
	tagService := tag.NewService(tag.NewPgxRepository(deps.DBPool))

	// File Module
	fileService := file.NewService(file.NewRepository(deps.DBPool), blobs)

	// Office Module
	officeRepo := office.NewPgxRepository(deps.DBPool)
	officeService := office.NewService(officeRepo, tagService, office.NewReviewNotifier(userService, c.Notifications), fileService, locker)

	// Reservation Module
	reservationRepo := reservation.NewPgxRepository(deps.DBPool)
	reservationService := reservation.NewService(reservationRepo, officeService, locker, c.Notifications, cfg.Location)

	// Reminders
	if cfg.Reminder.Enabled {
		job := reminder.NewJob(reservationRepo, c.Notifications)
		c.Reminders = reminder.NewScheduler(job, cfg.Reminder.Hour, cfg.Location, deps.Logger.With().Str("component", "reminder").Logger())
	}

	// Router
	c.Router = api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Logger:              deps.Logger,
		MetricsEnabled:      cfg.MetricsEnabled,
		RateLimitRPS:        cfg.RateLimit.RPS,
		RateLimitBurst:      cfg.RateLimit.Burst,
		ImageMaxBytes:       cfg.Storage.ImageMaxBytes,
		UserService:         userService,
		TagService:          tagService,
		OfficeService:       officeService,
		FileService:         fileService,
		ReservationService:  reservationService,
		NotificationService: notificationService,
		JWTManager:          jwtManager,
	})

	return c, nil
}

// Close drains queued notifications, then releases the senders.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if err := c.Notifications.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop notification pool: %w", err))
	}
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewLocker builds the reservation lock backend selected by LOCK_DRIVER.
func NewLocker(cfg config.LockConfig, client redis.UniversalClient) (lock.Locker, error) {
	opts := lock.Options{TTL: cfg.TTL, Wait: cfg.Wait, RetryInterval: cfg.RetryInterval}
	switch cfg.Driver {
	case config.LockDriverRedis:
		if client == nil {
			return nil, fmt.Errorf("lock driver %q requires a redis client", cfg.Driver)
		}
		return lock.NewRedisLocker(client, opts), nil
	case config.LockDriverMemory, "":
		return lock.NewMemoryLocker(opts), nil
	default:
		return nil, fmt.Errorf("unknown lock driver %q", cfg.Driver)
	}
}

// NewSender builds the notification channel selected by NOTIFICATION_DRIVER.
// The returned closer is non-nil only for senders holding connections.
func NewSender(cfg config.NotificationConfig, repo notification.Repository, logger zerolog.Logger) (notification.Sender, io.Closer, error) {
	switch cfg.Driver {
	case config.NotificationDriverDatabase, "":
		return notification.NewDatabaseSender(repo), nil, nil
	case config.NotificationDriverKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, nil, fmt.Errorf("notification driver %q requires KAFKA_BROKERS", cfg.Driver)
		}
		s := notification.NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		return s, s, nil
	case config.NotificationDriverLog:
		return notification.NewLogSender(logger.With().Str("component", "notification").Logger()), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown notification driver %q", cfg.Driver)
	}
}
