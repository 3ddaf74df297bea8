package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StorefrontCacheTTL bounds how stale a cached storefront payload can get
const StorefrontCacheTTL = 5 * time.Minute

// StorefrontCache caches the rendered public storefront payload by store slug.
// Admin mutations invalidate the slug; a miss is always safe.
type StorefrontCache interface {
	Get(ctx context.Context, slug string) ([]byte, bool)
	Set(ctx context.Context, slug string, payload []byte)
	Invalidate(ctx context.Context, slug string)
}

// StorefrontCacheKey is the redis key holding a store's payload
func StorefrontCacheKey(slug string) string {
	return "storefront:" + slug
}

// RedisStorefrontCache stores payloads in redis
type RedisStorefrontCache struct {
	client *redis.Client
	ttl    time.Duration
	onErr  func(op string, err error)
}

// NewRedisStorefrontCache connects to redisURL and verifies the connection
func NewRedisStorefrontCache(ctx context.Context, redisURL string, onErr func(op string, err error)) (*RedisStorefrontCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if onErr == nil {
		onErr = func(string, error) {}
	}
	return &RedisStorefrontCache{client: client, ttl: StorefrontCacheTTL, onErr: onErr}, nil
}

// Get returns the cached payload for slug
func (r *RedisStorefrontCache) Get(ctx context.Context, slug string) ([]byte, bool) {
	payload, err := r.client.Get(ctx, StorefrontCacheKey(slug)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.onErr("get", err)
		}
		return nil, false
	}
	return payload, true
}

// Set stores payload for slug
func (r *RedisStorefrontCache) Set(ctx context.Context, slug string, payload []byte) {
	if err := r.client.Set(ctx, StorefrontCacheKey(slug), payload, r.ttl).Err(); err != nil {
		r.onErr("set", err)
	}
}

// Invalidate drops the payload for slug
func (r *RedisStorefrontCache) Invalidate(ctx context.Context, slug string) {
	if err := r.client.Del(ctx, StorefrontCacheKey(slug)).Err(); err != nil {
		r.onErr("del", err)
	}
}

// Close releases the redis connection pool
func (r *RedisStorefrontCache) Close() error {
	return r.client.Close()
}

// NoopStorefrontCache never stores anything; it is used when REDIS_URL is unset
type NoopStorefrontCache struct{}

func (NoopStorefrontCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (NoopStorefrontCache) Set(context.Context, string, []byte)        {}
func (NoopStorefrontCache) Invalidate(context.Context, string)         {}

var storefrontCacheInstance StorefrontCache = NoopStorefrontCache{}

// GetStorefrontCache returns the process-wide storefront cache
func GetStorefrontCache() StorefrontCache {
	return storefrontCacheInstance
}

// SetStorefrontCache replaces the process-wide storefront cache; nil restores the no-op cache
func SetStorefrontCache(cache StorefrontCache) {
	if cache == nil {
		cache = NoopStorefrontCache{}
	}
	storefrontCacheInstance = cache
}

// MemoryStorefrontCache is a map-backed cache for tests
type MemoryStorefrontCache struct {
	Entries map[string][]byte
}

// NewMemoryStorefrontCache creates an empty in-memory cache
func NewMemoryStorefrontCache() *MemoryStorefrontCache {
	return &MemoryStorefrontCache{Entries: make(map[string][]byte)}
}

func (m *MemoryStorefrontCache) Get(_ context.Context, slug string) ([]byte, bool) {
	p, ok := m.Entries[slug]
	return p, ok
}

func (m *MemoryStorefrontCache) Set(_ context.Context, slug string, payload []byte) {
	m.Entries[slug] = payload
}

func (m *MemoryStorefrontCache) Invalidate(_ context.Context, slug string) {
	delete(m.Entries, slug)
}
