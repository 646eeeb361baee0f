package cache

import (
	"bytes"
	"context"
	"log/slog"
	"microfinance-backend/internal/config"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("connects and pings", func(t *testing.T) {
		mr := miniredis.RunT(t)

		rdb, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: mr.Addr()}, logger)
		require.NoError(t, err)
		defer rdb.Close()

		require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("empty address", func(t *testing.T) {
		_, err := NewRedisClient(context.Background(), config.RedisConfig{}, logger)
		assert.ErrorContains(t, err, "redis address is empty")
	})

	t.Run("unreachable server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: addr}, logger)
		assert.ErrorContains(t, err, "failed to ping redis")
	})
}
