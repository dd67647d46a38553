package store

import (
	"bytes"
	"context"
	"sync"
)

// MemoryKV keeps values in process memory. Everything is lost on restart.
type MemoryKV struct {
	mu    sync.Mutex
	data  map[string][]byte
	locks keyLocks
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(v), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	unlock := m.locks.lock(key)
	defer unlock()
	m.put(key, value)
	return nil
}

func (m *MemoryKV) Update(_ context.Context, key string, fn UpdateFunc) error {
	unlock := m.locks.lock(key)
	defer unlock()
	m.mu.Lock()
	cur := bytes.Clone(m.data[key])
	m.mu.Unlock()
	next, err := fn(cur)
	if err != nil {
		return err
	}
	m.put(key, next)
	return nil
}

func (m *MemoryKV) put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = bytes.Clone(value)
}

func (m *MemoryKV) Ping(context.Context) error { return nil }
