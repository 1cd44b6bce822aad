package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang-goodnews/internal/news/config"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"

	redisScanCount = 100
)

// CacheRepository stores encoded responses under string keys with a TTL.
type CacheRepository interface {
	// Get returns the value stored under key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// NewCacheRepository selects the cache driver named in cfg. redisClient is only used by the redis driver.
func NewCacheRepository(cfg config.Cache, redisClient *redis.Client) (CacheRepository, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", CacheDriverMemory:
		return NewMemoryCacheRepository(cfg.TTL, cfg.CheckPeriod), nil
	case CacheDriverRedis:
		if redisClient == nil {
			return nil, errors.New("redis cache driver requires a redis client")
		}
		return NewRedisCacheRepository(redisClient), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

type memoryCacheRepository struct {
	cache *gocache.Cache
}

// NewMemoryCacheRepository keeps entries in process; expired entries are swept every checkPeriod.
func NewMemoryCacheRepository(defaultTTL, checkPeriod time.Duration) CacheRepository {
	return &memoryCacheRepository{cache: gocache.New(defaultTTL, checkPeriod)}
}

func (r *memoryCacheRepository) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, found := r.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	b, ok := value.([]byte)
	if !ok {
		return nil, false, fmt.Errorf("unexpected cache value type %T for key %s", value, key)
	}
	return b, true, nil
}

func (r *memoryCacheRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	r.cache.Set(key, stored, ttl)
	return nil
}

func (r *memoryCacheRepository) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		r.cache.Delete(key)
	}
	return nil
}

func (r *memoryCacheRepository) DeleteByPrefix(_ context.Context, prefix string) error {
	for key := range r.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			r.cache.Delete(key)
		}
	}
	return nil
}

type redisCacheRepository struct {
	client *redis.Client
}

func NewRedisCacheRepository(client *redis.Client) CacheRepository {
	return &redisCacheRepository{client: client}
}

func (r *redisCacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}
	return value, true, nil
}

func (r *redisCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

func (r *redisCacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

func (r *redisCacheRepository) DeleteByPrefix(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", redisScanCount).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys with prefix %s: %w", prefix, err)
	}
	return r.Delete(ctx, keys...)
}
