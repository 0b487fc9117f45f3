package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/nurtureapp/nurture-api/internal/infrastructure/redis"
	"github.com/nurtureapp/nurture-api/internal/observability/metrics"
	"github.com/nurtureapp/nurture-api/pkg/cache"
)

// Cache is a read-through byte cache for catalog responses. Both backends
// treat errors as misses; a broken cache never fails a request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
}

// MemoryCache backs the catalog cache with the in-process TTL cache.
type MemoryCache struct {
	inner *cache.Cache
}

// NewMemoryCache creates an in-process catalog cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{inner: cache.New()}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.inner.Get(key)
	if ok {
		metrics.ObserveCacheLookup("hit")
	} else {
		metrics.ObserveCacheLookup("miss")
	}
	return v, ok
}

func (m *MemoryCache) Set(_ context.Context, key string, payload []byte, ttl time.Duration) {
	m.inner.Set(key, payload, ttl)
}

// RedisCache backs the catalog cache with a shared redis instance.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisCache creates a redis-backed catalog cache.
func NewRedisCache(client *redis.Client, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, logger: logger}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok, err := r.client.Get(ctx, key)
	if err != nil {
		r.logger.Warn("catalog cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		metrics.ObserveCacheLookup("error")
		return nil, false
	}
	if ok {
		metrics.ObserveCacheLookup("hit")
	} else {
		metrics.ObserveCacheLookup("miss")
	}
	return v, ok
}

func (r *RedisCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, payload, ttl); err != nil {
		r.logger.Warn("catalog cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
