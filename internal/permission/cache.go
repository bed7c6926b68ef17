package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores resolved permissions keyed by role id and role version, so an
// edited role is never served from a stale entry.
type Cache interface {
	Get(ctx context.Context, roleID, version int64) (*Permissions, error)
	Set(ctx context.Context, roleID, version int64, p Permissions) error
	Invalidate(ctx context.Context, roleID int64) error
}

// ErrCacheMiss is returned by Get when no entry exists.
var ErrCacheMiss = errors.New("permission cache miss")

func cacheKey(roleID, version int64) string {
	return fmt.Sprintf("perm:role:%d:v%d", roleID, version)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, roleID, version int64) (*Permissions, error) {
	raw, err := c.client.Get(ctx, cacheKey(roleID, version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var p Permissions
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode cached permissions: %w", err)
	}
	return &p, nil
}

func (c *RedisCache) Set(ctx context.Context, roleID, version int64, p Permissions) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(roleID, version), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate drops every cached version of the role.
func (c *RedisCache) Invalidate(ctx context.Context, roleID int64) error {
	pattern := fmt.Sprintf("perm:role:%d:v*", roleID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// NoopCache is used when Redis is disabled; every lookup resolves fresh.
type NoopCache struct{}

func (NoopCache) Get(context.Context, int64, int64) (*Permissions, error) { return nil, ErrCacheMiss }
func (NoopCache) Set(context.Context, int64, int64, Permissions) error     { return nil }
func (NoopCache) Invalidate(context.Context, int64) error                 { return nil }
