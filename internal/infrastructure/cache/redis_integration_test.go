//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/bulkship/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newRedisConfig starts a throwaway Redis container for the test.
func newRedisConfig(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return config.RedisConfig{
		Enabled:   true,
		Host:      host,
		Port:      port.Int(),
		KeyPrefix: "bulkship-test:",
	}
}

func TestRedisStores(t *testing.T) {
	cfg := newRedisConfig(t)
	ctx := context.Background()

	stores, err := NewFactory(cfg, WithInMemoryFallback(false)).Create(ctx)
	require.NoError(t, err)
	defer stores.Close()

	require.IsType(t, &RedisIdempotencyStore{}, stores.Idempotency)

	t.Run("claim is exclusive until released", func(t *testing.T) {
		ok, err := stores.Idempotency.MarkProcessed(ctx, "shp_1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = stores.Idempotency.MarkProcessed(ctx, "shp_1", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)

		processed, err := stores.Idempotency.IsProcessed(ctx, "shp_1")
		require.NoError(t, err)
		assert.True(t, processed)

		require.NoError(t, stores.Idempotency.Release(ctx, "shp_1"))
		ok, err = stores.Idempotency.MarkProcessed(ctx, "shp_1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("claim expires", func(t *testing.T) {
		ok, err := stores.Idempotency.MarkProcessed(ctx, "shp_ttl", 100*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		assert.Eventually(t, func() bool {
			processed, err := stores.Idempotency.IsProcessed(ctx, "shp_ttl")
			return err == nil && !processed
		}, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("memo round trip", func(t *testing.T) {
		key := ContentKey("verify", "1 Main St")

		_, found, err := stores.Memo.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, stores.Memo.Set(ctx, key, []byte("cached"), time.Minute))
		got, found, err := stores.Memo.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "cached", string(got))
	})
}
