package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultTTL   = 5 * time.Second
	defaultRetry = 25 * time.Millisecond
)

var (
	// ErrNotConfigured is returned when the locker has no Redis client.
	ErrNotConfigured = errors.New("lock: redis client not configured")
	// ErrNoCallback is returned when WithLock is called without a function.
	ErrNoCallback = errors.New("lock: callback not provided")
)

var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// Locker serialises read-modify-write cycles on shared keys across processes.
type Locker struct {
	R            redis.Cmdable
	TTL          time.Duration
	RetryBackoff time.Duration
}

// Key returns the lock key guarding resource.
func Key(resource string) string {
	return resource + ":lock"
}

// WithLock runs fn while holding the lock for key. The lock is released when
// fn returns, including on error. A ttl of zero uses the locker default.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return ErrNotConfigured
	}
	if fn == nil {
		return ErrNoCallback
	}
	if ttl <= 0 {
		ttl = l.TTL
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = defaultRetry
	}
	token := uuid.NewString()

	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.R, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		// Scripting disabled: fall back to a plain delete if we still own it.
		if cur, getErr := l.R.Get(ctx, key).Result(); getErr == nil && cur == token {
			_ = l.R.Del(ctx, key).Err()
		}
	}
}
