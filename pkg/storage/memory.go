package storage

import (
	"context"
	"sync"
)

// Memory keeps items in process. Data is lost on restart.
type Memory struct {
	mu       sync.RWMutex
	items    map[string]map[string]string
	maxBytes int
}

type MemoryOption func(*Memory)

// WithQuota caps the total bytes stored per scope, mimicking browser storage limits.
func WithQuota(maxBytes int) MemoryOption {
	return func(m *Memory) {
		m.maxBytes = maxBytes
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{items: make(map[string]map[string]string)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) GetItem(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.items[scope][key]
	return val, ok, nil
}

func (m *Memory) SetItem(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.items[scope]
	if !ok {
		bucket = make(map[string]string)
		m.items[scope] = bucket
	}
	if m.maxBytes > 0 {
		used := len(key) + len(value)
		for k, v := range bucket {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used > m.maxBytes {
			return ErrQuotaExceeded
		}
	}
	bucket[key] = value
	return nil
}

func (m *Memory) RemoveItem(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.items[scope]
	if !ok {
		return nil
	}
	delete(bucket, key)
	if len(bucket) == 0 {
		delete(m.items, scope)
	}
	return nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}
