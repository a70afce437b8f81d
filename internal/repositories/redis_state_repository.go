package repositories

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "animehub:client:"

// RedisStateRepo keeps client state in redis, shared by every client that
// points at the same instance.
type RedisStateRepo struct {
	client *redis.Client
}

func NewRedisStateRepo(client *redis.Client) *RedisStateRepo {
	return &RedisStateRepo{client: client}
}

func (r *RedisStateRepo) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return value, err
}

func (r *RedisStateRepo) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, redisKeyPrefix+key, value, 0).Err()
}

func (r *RedisStateRepo) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisKeyPrefix+key).Err()
}
