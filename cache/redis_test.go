package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupCache(t *testing.T) *RedisCache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	rc, err := NewRedisCache(uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

func TestStandingsKey(t *testing.T) {
	assert.Equal(t, "standings:42", StandingsKey(42))
}

func TestNewRedisCache_BadURL(t *testing.T) {
	_, err := NewRedisCache("not a url")
	assert.Error(t, err)
}

func TestRedisCache_LockAndJSON(t *testing.T) {
	rc := setupCache(t)
	ctx := context.Background()

	ok, err := rc.Acquire(ctx, "jobs:test", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rc.Acquire(ctx, "jobs:test", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.Release(ctx, "jobs:test"))
	ok, err = rc.Acquire(ctx, "jobs:test", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	type row struct{ Name string }
	var got []row
	assert.ErrorIs(t, rc.GetJSON(ctx, StandingsKey(1), &got), ErrMiss)

	require.NoError(t, rc.SetJSON(ctx, StandingsKey(1), []row{{"a"}, {"b"}}, time.Minute))
	require.NoError(t, rc.GetJSON(ctx, StandingsKey(1), &got))
	assert.Equal(t, []row{{"a"}, {"b"}}, got)

	require.NoError(t, rc.DeletePattern(ctx, "standings:*"))
	assert.ErrorIs(t, rc.GetJSON(ctx, StandingsKey(1), &got), ErrMiss)
}

func TestRedisCache_ReleaseKeepsNextHoldersLock(t *testing.T) {
	first := setupCache(t)
	second := NewWithClient(first.client)
	ctx := context.Background()

	ok, err := first.Acquire(ctx, "jobs:slow", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// The first run outlives its TTL and a second run takes over.
	require.NoError(t, first.client.Del(ctx, "jobs:slow").Err())
	ok, err = second.Acquire(ctx, "jobs:slow", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.Release(ctx, "jobs:slow"))
	ok, err = first.Acquire(ctx, "jobs:slow", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "late release must not free the new holder's lock")

	require.NoError(t, second.Release(ctx, "jobs:slow"))
	ok, err = first.Acquire(ctx, "jobs:slow", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCache_HealthCheck(t *testing.T) {
	rc := setupCache(t)
	assert.NoError(t, rc.HealthCheck(context.Background()))

	down := NewWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}))
	defer down.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, down.HealthCheck(ctx))
}

func TestNewWithClient(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	rc := NewWithClient(client)
	assert.NoError(t, rc.Close())
}
