package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/ports"
)

// ProjectionCache stores found projections by cache key.
type ProjectionCache interface {
	GetMany(ctx context.Context, keys []string) (map[string]domain.EntityProjection, error)
	SetMany(ctx context.Context, entries map[string]domain.EntityProjection, ttl time.Duration) error
}

// CachedFetcher is a read-through cache in front of another fetcher. Misses
// still go to the inner fetcher in one batch. Cache failures are logged and
// never fail the fetch.
type CachedFetcher struct {
	inner ports.EntityFetcher
	cache ProjectionCache
	ttl   time.Duration
	log   *slog.Logger
}

func NewCachedFetcher(inner ports.EntityFetcher, cache ProjectionCache, ttl time.Duration, log *slog.Logger) *CachedFetcher {
	if log == nil {
		log = slog.Default()
	}
	return &CachedFetcher{inner: inner, cache: cache, ttl: ttl, log: log}
}

func (f *CachedFetcher) Kind() domain.EntityKind { return f.inner.Kind() }

func (f *CachedFetcher) FetchBatch(ctx context.Context, keys []string) (map[string]domain.EntityProjection, error) {
	if len(keys) == 0 {
		return map[string]domain.EntityProjection{}, nil
	}
	kind := f.inner.Kind()

	cacheKeys := make([]string, len(keys))
	for i, k := range keys {
		cacheKeys[i] = cacheKey(kind, k)
	}
	hits, err := f.cache.GetMany(ctx, cacheKeys)
	if err != nil {
		f.log.WarnContext(ctx, "projection cache read failed", "kind", kind, "error", err)
		hits = nil
	}

	out := make(map[string]domain.EntityProjection, len(keys))
	var misses []string
	for i, k := range keys {
		if p, ok := hits[cacheKeys[i]]; ok {
			out[k] = p
			continue
		}
		misses = append(misses, k)
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := f.inner.FetchBatch(ctx, misses)
	if err != nil {
		return nil, err
	}
	toCache := make(map[string]domain.EntityProjection, len(fetched))
	for k, p := range fetched {
		out[k] = p
		toCache[cacheKey(kind, k)] = p
	}
	if len(toCache) > 0 {
		if err := f.cache.SetMany(ctx, toCache, f.ttl); err != nil {
			f.log.WarnContext(ctx, "projection cache write failed", "kind", kind, "error", err)
		}
	}
	return out, nil
}

func cacheKey(kind domain.EntityKind, key string) string {
	return "bookingaudit:projection:" + string(kind) + ":" + key
}

type cachedProjection struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RedisCache keeps projections as JSON strings with a TTL.
type RedisCache struct {
	rdb redis.UniversalClient
}

func NewRedisCache(rdb redis.UniversalClient) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) GetMany(ctx context.Context, keys []string) (map[string]domain.EntityProjection, error) {
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	out := make(map[string]domain.EntityProjection, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var cp cachedProjection
		if err := json.Unmarshal([]byte(s), &cp); err != nil {
			continue
		}
		out[keys[i]] = domain.EntityProjection{Key: cp.Key, Name: cp.Name, Email: cp.Email, Found: true}
	}
	return out, nil
}

func (c *RedisCache) SetMany(ctx context.Context, entries map[string]domain.EntityProjection, ttl time.Duration) error {
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, p := range entries {
			b, err := json.Marshal(cachedProjection{Key: p.Key, Name: p.Name, Email: p.Email})
			if err != nil {
				return err
			}
			pipe.Set(ctx, k, b, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis pipeline set: %w", err)
	}
	return nil
}
