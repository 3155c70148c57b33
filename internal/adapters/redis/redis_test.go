package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	redisadapter "github.com/robertarktes/event-marketplace/internal/adapters/redis"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCache_Trending(t *testing.T) {
	ctx := context.Background()
	cache := redisadapter.NewCache(startRedis(t))

	_, ok, err := cache.Trending(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	events := []domain.EventSummary{{Event: domain.Event{ID: uuid.New(), Title: "Jazz Night"}, Sold: 12}}
	require.NoError(t, cache.SetTrending(ctx, events, time.Minute))

	got, ok, err := cache.Trending(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Jazz Night", got[0].Title)
	assert.Equal(t, 12, got[0].Sold)

	require.NoError(t, cache.InvalidateTrending(ctx))
	_, ok, err = cache.Trending(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdempotency_LockAndReplay(t *testing.T) {
	ctx := context.Background()
	idemp := redisadapter.NewIdempotency(startRedis(t))

	resp, err := idemp.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, resp)

	ok, err := idemp.Lock(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = idemp.Lock(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, idemp.Set(ctx, "k1", redisadapter.IdempResponse{Status: 201, ContentType: "application/json", Result: []byte(`{"ok":true}`)}, time.Minute))
	require.NoError(t, idemp.Unlock(ctx, "k1"))

	resp, err = idemp.Get(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.Status)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Result))
}
