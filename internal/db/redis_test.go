package db

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/office-booking-backend/internal/config"
)

func TestNewRedisClient(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Address: s.Addr(), PoolSize: 2})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	s.CheckGet(t, "k", "v")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	addr := s.Addr()
	s.Close()

	_, err = NewRedisClient(context.Background(), config.RedisConfig{Address: addr})
	assert.Error(t, err)
}

func TestSchemaEmbedded(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS public.reservations")
	assert.Contains(t, schemaSQL, "reservations_office_active_idx")
}
