package repository

import (
	"context"
	"testing"
	"time"

	"golang-goodnews/internal/news/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRepository(t *testing.T) {
	cache := NewMemoryCacheRepository(time.Hour, time.Minute)
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "news:all:40:20:1")
	require.NoError(t, err)
	assert.False(t, found)

	value := []byte(`{"articles":[]}`)
	require.NoError(t, cache.Set(ctx, "news:all:40:20:1", value, time.Hour))
	value[0] = 'X'

	got, found, err := cache.Get(ctx, "news:all:40:20:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"articles":[]}`, string(got))

	require.NoError(t, cache.Delete(ctx, "news:all:40:20:1"))
	_, found, _ = cache.Get(ctx, "news:all:40:20:1")
	assert.False(t, found)
}

func TestMemoryCacheRepositoryExpires(t *testing.T) {
	cache := NewMemoryCacheRepository(time.Hour, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, found, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheRepositoryDeleteByPrefix(t *testing.T) {
	cache := NewMemoryCacheRepository(time.Hour, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "news:health:40:20:1", []byte("a"), time.Hour))
	require.NoError(t, cache.Set(ctx, "news:health:40:20:2", []byte("b"), time.Hour))
	require.NoError(t, cache.Set(ctx, "news:arts:40:20:1", []byte("c"), time.Hour))

	require.NoError(t, cache.DeleteByPrefix(ctx, "news:health:"))

	_, found, _ := cache.Get(ctx, "news:health:40:20:1")
	assert.False(t, found)
	_, found, _ = cache.Get(ctx, "news:arts:40:20:1")
	assert.True(t, found)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCacheRepository(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewRedisCacheRepository(client)
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "news:all:40:20:1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "news:all:40:20:1", []byte(`{"total":3}`), time.Minute))
	got, found, err := cache.Get(ctx, "news:all:40:20:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"total":3}`, string(got))

	mr.FastForward(2 * time.Minute)
	_, found, err = cache.Get(ctx, "news:all:40:20:1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheRepositoryDeleteByPrefix(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewRedisCacheRepository(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "news:science:40:20:1", []byte("a"), time.Minute))
	require.NoError(t, cache.Set(ctx, "news:science:50:20:1", []byte("b"), time.Minute))
	require.NoError(t, cache.Set(ctx, "news:all:40:20:1", []byte("c"), time.Minute))

	require.NoError(t, cache.DeleteByPrefix(ctx, "news:science:"))

	_, found, _ := cache.Get(ctx, "news:science:50:20:1")
	assert.False(t, found)
	_, found, _ = cache.Get(ctx, "news:all:40:20:1")
	assert.True(t, found)
	require.NoError(t, cache.DeleteByPrefix(ctx, "news:nothing:"))
}

func TestNewCacheRepository(t *testing.T) {
	_, client := newTestRedis(t)

	memory, err := NewCacheRepository(config.Cache{Driver: "memory", TTL: time.Hour, CheckPeriod: time.Minute}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memoryCacheRepository{}, memory)

	redisCache, err := NewCacheRepository(config.Cache{Driver: "redis"}, client)
	require.NoError(t, err)
	assert.IsType(t, &redisCacheRepository{}, redisCache)

	_, err = NewCacheRepository(config.Cache{Driver: "redis"}, nil)
	assert.Error(t, err)

	_, err = NewCacheRepository(config.Cache{Driver: "memcached"}, nil)
	assert.Error(t, err)
}
