package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClientFromRedis(rdb), mr
}

func TestCache_GetOrLoadSafe(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	var loads atomic.Int32
	loader := func() (interface{}, error) {
		loads.Add(1)
		return []string{"openai/gpt-4o"}, nil
	}

	raw, err := cache.GetOrLoadSafe(ctx, "catalog:models:abc", time.Minute, loader)
	require.NoError(t, err)
	assert.JSONEq(t, `["openai/gpt-4o"]`, string(raw))

	raw, err = cache.GetOrLoadSafe(ctx, "catalog:models:abc", time.Minute, loader)
	require.NoError(t, err)
	assert.JSONEq(t, `["openai/gpt-4o"]`, string(raw))
	assert.EqualValues(t, 1, loads.Load())

	mr.FastForward(2 * time.Minute)
	_, err = cache.GetOrLoadSafe(ctx, "catalog:models:abc", time.Minute, loader)
	require.NoError(t, err)
	assert.EqualValues(t, 2, loads.Load())
}

func TestCache_LoaderErrorNotCached(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client)
	boom := errors.New("upstream down")

	_, err := cache.GetOrLoadSafe(context.Background(), "k", time.Minute, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestCache_InvalidatePattern(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client)
	ctx := context.Background()

	require.NoError(t, mr.Set("catalog:models:a", "[]"))
	require.NoError(t, mr.Set("catalog:models:b", "[]"))
	require.NoError(t, mr.Set("secret:openrouter_api_key", "sk"))

	require.NoError(t, cache.InvalidatePattern(ctx, "catalog:models:*"))
	assert.False(t, mr.Exists("catalog:models:a"))
	assert.False(t, mr.Exists("catalog:models:b"))
	assert.True(t, mr.Exists("secret:openrouter_api_key"))
}

func TestSecretStore_RoundTrip(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewSecretStore(client, "schema-assistant:credential")
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "openrouter_api_key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "openrouter_api_key", "sk-or-1"))
	v, ok, err := store.Get(ctx, "openrouter_api_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk-or-1", v)
	assert.Equal(t, time.Duration(0), mr.TTL("schema-assistant:credential:openrouter_api_key"))

	require.NoError(t, store.Delete(ctx, "openrouter_api_key"))
	require.NoError(t, store.Delete(ctx, "openrouter_api_key"))
	_, ok, err = store.Get(ctx, "openrouter_api_key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateLimiter_Allow(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client)
	ctx := context.Background()
	key := BuildRateLimitKey("messages", "127.0.0.1")
	assert.Equal(t, "ratelimit:messages:127.0.0.1", key)

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, err := limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := limiter.Remaining(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	require.NoError(t, limiter.Reset(ctx, key))
	ok, err = limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
