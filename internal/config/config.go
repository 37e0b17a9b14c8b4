package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const PROD_STRING = "prod"

// Lock drivers.
const (
	LockDriverRedis  = "redis"
	LockDriverMemory = "memory"
)

// Notification drivers.
const (
	NotificationDriverDatabase = "database"
	NotificationDriverKafka    = "kafka"
	NotificationDriverLog      = "log"
)

// AppConfig identifies the running service in logs.
type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level    string
	Format   string // json or console
	Output   string // stdout, stderr or file
	FilePath string
}

// RedisConfig holds connection settings for the lock backend.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

// LockConfig tunes the per-office reservation lock.
type LockConfig struct {
	Driver        string
	TTL           time.Duration
	Wait          time.Duration
	RetryInterval time.Duration
}

// StorageConfig describes where uploaded images live.
type StorageConfig struct {
	Path          string
	ImageMaxBytes int64
}

// NotificationConfig selects the delivery channel and worker pool size.
type NotificationConfig struct {
	Driver       string
	Workers      int
	QueueSize    int
	KafkaBrokers []string
	KafkaTopic   string
}

// RateLimitConfig is applied per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// ReminderConfig schedules the daily due-reservation notifications.
type ReminderConfig struct {
	Enabled bool
	Hour    int
}

// Config holds all application configuration loaded from environment.
type Config struct {
	App               AppConfig
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int
	Location          *time.Location
	MetricsEnabled    bool

	Logging      LoggingConfig
	Redis        RedisConfig
	Lock         LockConfig
	Storage      StorageConfig
	Notification NotificationConfig
	RateLimit    RateLimitConfig
	Reminder     ReminderConfig
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg := &Config{}
	var err error

	// Application identity
	appEnvStr := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnvStr == PROD_STRING
	cfg.App = AppConfig{
		Name:        getEnv("APP_NAME", "office-booking"),
		Environment: appEnvStr,
		Version:     getEnv("APP_VERSION", "dev"),
	}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	// Bcrypt cost for password hashing (default: 12)
	if cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	// "Today" for reservation rules is evaluated in this zone.
	tz := getEnv("TIMEZONE", "UTC")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.MetricsEnabled, err = getEnvAsBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}

	cfg.Logging = LoggingConfig{
		Level:    getEnv("LOG_LEVEL", "info"),
		Format:   getEnv("LOG_FORMAT", "json"),
		Output:   getEnv("LOG_OUTPUT", "stdout"),
		FilePath: getEnv("LOG_FILE_PATH", ""),
	}

	if err := loadRedis(cfg); err != nil {
		return nil, err
	}
	if err := loadLock(cfg); err != nil {
		return nil, err
	}
	if err := loadStorage(cfg); err != nil {
		return nil, err
	}
	if err := loadNotification(cfg); err != nil {
		return nil, err
	}
	if err := loadRateLimit(cfg); err != nil {
		return nil, err
	}
	if err := loadReminder(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadRedis(cfg *Config) error {
	var err error
	cfg.Redis.Address = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	if cfg.Redis.DB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return err
	}
	if cfg.Redis.PoolSize, err = getEnvAsInt("REDIS_POOL_SIZE", 10); err != nil {
		return err
	}
	return nil
}

func loadLock(cfg *Config) error {
	var err error
	cfg.Lock.Driver = strings.ToLower(getEnv("LOCK_DRIVER", LockDriverRedis))
	if cfg.Lock.Driver != LockDriverRedis && cfg.Lock.Driver != LockDriverMemory {
		return fmt.Errorf("invalid LOCK_DRIVER %q", cfg.Lock.Driver)
	}
	if cfg.Lock.TTL, err = getEnvAsDuration("RESERVATION_LOCK_TTL", 10*time.Second); err != nil {
		return err
	}
	if cfg.Lock.Wait, err = getEnvAsDuration("RESERVATION_LOCK_WAIT", 3*time.Second); err != nil {
		return err
	}
	if cfg.Lock.RetryInterval, err = getEnvAsDuration("RESERVATION_LOCK_RETRY", 50*time.Millisecond); err != nil {
		return err
	}
	return nil
}

func loadStorage(cfg *Config) error {
	cfg.Storage.Path = getEnv("STORAGE_PATH", "./storage")
	maxBytes, err := getEnvAsInt("IMAGE_MAX_BYTES", 5000*1024)
	if err != nil {
		return err
	}
	cfg.Storage.ImageMaxBytes = int64(maxBytes)
	return nil
}

func loadNotification(cfg *Config) error {
	var err error
	cfg.Notification.Driver = strings.ToLower(getEnv("NOTIFICATION_DRIVER", NotificationDriverDatabase))
	switch cfg.Notification.Driver {
	case NotificationDriverDatabase, NotificationDriverLog:
	case NotificationDriverKafka:
		brokers := getEnv("KAFKA_BROKERS", "")
		if brokers == "" {
			return fmt.Errorf("KAFKA_BROKERS is required when NOTIFICATION_DRIVER=kafka")
		}
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Notification.KafkaBrokers = append(cfg.Notification.KafkaBrokers, b)
			}
		}
	default:
		return fmt.Errorf("invalid NOTIFICATION_DRIVER %q", cfg.Notification.Driver)
	}
	cfg.Notification.KafkaTopic = getEnv("KAFKA_TOPIC", "office-booking.notifications")

	if cfg.Notification.Workers, err = getEnvAsInt("NOTIFICATION_WORKERS", 4); err != nil {
		return err
	}
	if cfg.Notification.QueueSize, err = getEnvAsInt("NOTIFICATION_QUEUE_SIZE", 256); err != nil {
		return err
	}
	return nil
}

func loadRateLimit(cfg *Config) error {
	rps := getEnv("RATE_LIMIT_RPS", "10")
	v, err := strconv.ParseFloat(rps, 64)
	if err != nil {
		return fmt.Errorf("env RATE_LIMIT_RPS value %q is not a valid number: %w", rps, err)
	}
	cfg.RateLimit.RPS = v
	if cfg.RateLimit.Burst, err = getEnvAsInt("RATE_LIMIT_BURST", 20); err != nil {
		return err
	}
	return nil
}

func loadReminder(cfg *Config) error {
	var err error
	if cfg.Reminder.Enabled, err = getEnvAsBool("REMINDER_ENABLED", true); err != nil {
		return err
	}
	if cfg.Reminder.Hour, err = getEnvAsInt("REMINDER_HOUR", 7); err != nil {
		return err
	}
	if cfg.Reminder.Hour < 0 || cfg.Reminder.Hour > 23 {
		return fmt.Errorf("REMINDER_HOUR must be between 0 and 23")
	}
	return nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration parses values like "15m" or "3s".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}
