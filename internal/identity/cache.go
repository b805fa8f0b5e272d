package identity

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "slotkeeper:identity:"

// SharedCache is the cross-process tier between the in-process map and the
// calendar provider.
type SharedCache interface {
	Get(ctx context.Context, email string) (string, bool, error)
	Set(ctx context.Context, email, calendarID string, ttl time.Duration) error
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, email string) (string, bool, error) {
	id, err := c.rdb.Get(ctx, keyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (c *RedisCache) Set(ctx context.Context, email, calendarID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, keyPrefix+email, calendarID, ttl).Err()
}
