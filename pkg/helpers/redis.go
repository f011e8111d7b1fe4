package helpers

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// AcquireOnce takes a short-lived latch on key. It returns true when this
// caller won the latch, false when another request already holds it. Used to
// shed concurrent duplicate payment submissions before they reach Postgres.
func AcquireOnce(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, key, "1", ttl).Result()
}

// ReleaseLatch drops a latch taken with AcquireOnce.
func ReleaseLatch(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err()
}

// RedisLatch adapts the latch helpers to the shape services consume.
type RedisLatch struct {
	RDB *redis.Client
}

func (l *RedisLatch) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return AcquireOnce(ctx, l.RDB, key, ttl)
}

func (l *RedisLatch) Release(ctx context.Context, key string) error {
	return ReleaseLatch(ctx, l.RDB, key)
}
