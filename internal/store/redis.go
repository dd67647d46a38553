package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/livvitt-quotes/internal/lock"
)

// RedisKV stores values as plain Redis strings. Updates take a per-key lock
// so concurrent API replicas never interleave a read-modify-write.
type RedisKV struct {
	client redis.Cmdable
	locker lock.Locker
}

// NewRedisKV wraps client. The locker guards Update.
func NewRedisKV(client redis.Cmdable, locker lock.Locker) *RedisKV {
	if locker.R == nil {
		locker.R = client
	}
	return &RedisKV{client: client, locker: locker}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return r.locker.WithLock(ctx, lock.Key(key), 0, func(ctx context.Context) error {
		cur, err := r.Get(ctx, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		return r.Set(ctx, key, next)
	})
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
