package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BartuV/telsiz/internal/persistence"
)

// ErrCacheMiss reports an absent key. Any other error from a Cache is
// a cache fault: callers log it and fall through to durable storage.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the volatile layer in front of a durable repository. It is
// strictly an optimization; correctness never depends on it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache adapts the shared Redis client to the Cache interface.
func NewRedisCache(r *persistence.Redis) Cache {
	return &redisCache{client: r.Client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *redisCache) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.SetEx(ctx, key, value, ttl).Err()
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
