package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magelanzzz/subscription-manager/internal/config"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) *Cache {
	ctx := context.Background()
	redisPort := nat.Port("6379/tcp")

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{string(redisPort)},
			WaitingFor:   wait.ForListeningPort(redisPort).WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, redisPort)
	require.NoError(t, err)

	cfg := config.RedisConnection{
		Addr:        fmt.Sprintf("%s:%s", host, mappedPort.Port()),
		DialTimeout: 5 * time.Second,
		Timeout:     3 * time.Second,
	}

	cache, err := InitServer(ctx, cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	expected := testStruct{Name: "Alice", Age: 30}
	err := cache.Set(ctx, "user:1", expected, time.Minute)
	require.NoError(t, err)

	var actual testStruct
	found, err := cache.Get(ctx, "user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out testStruct
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key1", "value", time.Minute))
	require.NoError(t, cache.Set(ctx, "key2", "value", time.Minute))

	require.NoError(t, cache.Invalidate(ctx, "key1", "key2"))

	var out string
	found, err := cache.Get(ctx, "key1", &out)
	require.NoError(t, err)
	assert.False(t, found)

	// Пустой список ключей не является ошибкой.
	require.NoError(t, cache.Invalidate(ctx))
}

func TestInvalidateByPrefix(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "subscription:history:1|p1", "a", time.Minute))
	require.NoError(t, cache.Set(ctx, "subscription:history:1|p2", "b", time.Minute))
	require.NoError(t, cache.Set(ctx, "subscription:active:1", "c", time.Minute))

	require.NoError(t, cache.InvalidateByPrefix(ctx, "subscription:history:1|"))

	var out string
	found, err := cache.Get(ctx, "subscription:history:1|p1", &out)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = cache.Get(ctx, "subscription:active:1", &out)
	require.NoError(t, err)
	assert.True(t, found, "keys outside the prefix must survive")
}

func TestGetInvalidJSON(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	err := cache.DB.Set(ctx, "bad", []byte("not-json"), time.Minute).Err()
	require.NoError(t, err)

	var out testStruct
	found, err := cache.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		Addr:        "127.0.0.1:9999",
		DialTimeout: time.Second,
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}
