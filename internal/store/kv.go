package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/livvitt-quotes/internal/lock"
)

// Supported backend drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

var (
	// ErrNotFound is returned when a key or document does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrEmpty is returned when an export is requested with no saved documents.
	ErrEmpty = errors.New("store: no saved documents")
	// ErrUnknownDriver is returned by NewKV for unsupported drivers.
	ErrUnknownDriver = errors.New("store: unknown driver")
)

// UpdateFunc receives the current value of a key (nil when unset) and
// returns the value to persist. Returning an error aborts the write.
type UpdateFunc func(current []byte) ([]byte, error)

// KV is the byte-level storage the document store is built on. Update is the
// only read-modify-write path and runs as a critical section: no other
// Update on the same key interleaves with fn.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
}

// Backend describes how to build a KV.
type Backend struct {
	Driver string
	Path   string
	Redis  *redis.Client
	Locker lock.Locker
}

// NewKV constructs the configured backend.
func NewKV(b Backend) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(b.Driver)) {
	case "", DriverMemory:
		return NewMemoryKV(), nil
	case DriverFile:
		return NewFileKV(b.Path)
	case DriverRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("store: redis driver requires a client")
		}
		locker := b.Locker
		if locker.R == nil {
			locker.R = b.Redis
		}
		return NewRedisKV(b.Redis, locker), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, b.Driver)
	}
}

// keyLocks hands out one mutex per key, so an Update on one key may run
// another Update on a different key without blocking on itself.
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (k *keyLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*sync.Mutex)
	}
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}
