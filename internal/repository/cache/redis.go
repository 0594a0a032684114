package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pesokrava/furniture_catalog/internal/domain"
)

const keyPrefix = "catalog"

// RedisCache caches facet value lists and top lists in Redis.
// Every key is tracked in a per-scope SET so a scope can be dropped at once.
type RedisCache struct {
	client      *redis.Client
	facetsTTL   time.Duration
	topListsTTL time.Duration
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(client *redis.Client, facetsTTL, topListsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:      client,
		facetsTTL:   facetsTTL,
		topListsTTL: topListsTTL,
	}
}

func facetKey(field domain.FacetField) string {
	return fmt.Sprintf("%s:facets:%s", keyPrefix, field)
}

func topListKey(scope domain.CacheScope, limit int) string {
	return fmt.Sprintf("%s:top:%s:%d", keyPrefix, scope, limit)
}

func scopeKeysSet(scope domain.CacheScope) string {
	return fmt.Sprintf("%s:scope:%s:keys", keyPrefix, scope)
}

// GetFacetValues retrieves the cached distinct values of a facet
func (c *RedisCache) GetFacetValues(ctx context.Context, field domain.FacetField) ([]string, error) {
	var values []string
	if err := c.get(ctx, facetKey(field), &values); err != nil {
		return nil, err
	}
	return values, nil
}

// SetFacetValues stores the distinct values of a facet
func (c *RedisCache) SetFacetValues(ctx context.Context, field domain.FacetField, values []string) error {
	return c.set(ctx, domain.ScopeFacets, facetKey(field), values, c.facetsTTL)
}

// GetTopList retrieves a cached top list
func (c *RedisCache) GetTopList(ctx context.Context, scope domain.CacheScope, limit int) ([]*domain.Product, error) {
	var products []*domain.Product
	if err := c.get(ctx, topListKey(scope, limit), &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SetTopList stores a top list
func (c *RedisCache) SetTopList(ctx context.Context, scope domain.CacheScope, limit int, products []*domain.Product) error {
	return c.set(ctx, scope, topListKey(scope, limit), products, c.topListsTTL)
}

// InvalidateScopes removes every key cached under the given scopes
func (c *RedisCache) InvalidateScopes(ctx context.Context, scopes ...domain.CacheScope) error {
	for _, scope := range scopes {
		trackingKey := scopeKeysSet(scope)

		keys, err := c.client.SMembers(ctx, trackingKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("list %s cache keys: %w", scope, err)
		}

		if len(keys) > 0 {
			keys = append(keys, trackingKey)
			if err := c.client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("unlink %s cache keys: %w", scope, err)
			}
		}
	}
	return nil
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) error {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(val, dst)
}

func (c *RedisCache) set(ctx context.Context, scope domain.CacheScope, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	trackingKey := scopeKeysSet(scope)

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, trackingKey, key)
	pipe.Expire(ctx, trackingKey, ttl)
	_, err = pipe.Exec(ctx)
	return err
}
