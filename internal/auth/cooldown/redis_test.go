//go:build e2e

package cooldown

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisReserve(t *testing.T) {
	ctx := context.Background()
	l := NewRedis(setupRedis(t), time.Minute)

	key := Key("login_mfa", "alice@example.com")

	_, ok, err := l.Reserve(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	retry, ok, err := l.Reserve(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
	require.Greater(t, retry, 50*time.Second)
	require.LessOrEqual(t, retry, time.Minute)

	require.NoError(t, l.Release(ctx, key))

	_, ok, err = l.Reserve(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
}
