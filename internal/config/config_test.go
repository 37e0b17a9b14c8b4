package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/office_test")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)
	assert.Equal(t, LockDriverRedis, cfg.Lock.Driver)
	assert.Equal(t, 10*time.Second, cfg.Lock.TTL)
	assert.Equal(t, 3*time.Second, cfg.Lock.Wait)
	assert.Equal(t, int64(5000*1024), cfg.Storage.ImageMaxBytes)
	assert.Equal(t, NotificationDriverDatabase, cfg.Notification.Driver)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.IsProduction)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOCK_DRIVER", "memory")
	t.Setenv("RESERVATION_LOCK_WAIT", "500ms")
	t.Setenv("NOTIFICATION_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("TIMEZONE", "Asia/Taipei")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, LockDriverMemory, cfg.Lock.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Lock.Wait)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Notification.KafkaBrokers)
	assert.Equal(t, "Asia/Taipei", cfg.Location.String())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing dsn", env: map[string]string{"DB_DSN": "", "JWT_SECRET": "x"}},
		{name: "missing secret", env: map[string]string{"DB_DSN": "x", "JWT_SECRET": ""}},
		{name: "bad lock driver", env: map[string]string{"LOCK_DRIVER": "zookeeper"}},
		{name: "bad duration", env: map[string]string{"RESERVATION_LOCK_TTL": "ten"}},
		{name: "kafka without brokers", env: map[string]string{"NOTIFICATION_DRIVER": "kafka", "KAFKA_BROKERS": ""}},
		{name: "reminder hour out of range", env: map[string]string{"REMINDER_HOUR": "24"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
