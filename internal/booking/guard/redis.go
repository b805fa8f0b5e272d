package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "slotkeeper:guard:"

// releaseScript deletes the key only when it still carries the caller's owner token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisGuard struct {
	rdb *redis.Client
}

func NewRedisGuard(rdb *redis.Client) *RedisGuard {
	return &RedisGuard{rdb: rdb}
}

func (g *RedisGuard) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, redisKeyPrefix+key, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire slot guard: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key, owner string) error {
	if err := releaseScript.Run(ctx, g.rdb, []string{redisKeyPrefix + key}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release slot guard: %w", err)
	}
	return nil
}
