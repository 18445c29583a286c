package cache

import (
	"sync"
	"time"
)

// MemCache is a minimal TTL map[string] -> V cache. Values are returned as
// stored; callers must not mutate shared slices or maps.
type MemCache[V any] struct {
	mu   sync.RWMutex
	data map[string]memItem[V]
	now  func() time.Time
}

// memItem stores a value and its expiry time.
type memItem[V any] struct {
	val   V
	expAt time.Time
}

// NewMemCache constructs an in-memory TTL cache.
func NewMemCache[V any]() *MemCache[V] {
	return &MemCache[V]{data: make(map[string]memItem[V]), now: time.Now}
}

// Get retrieves a cached value if not expired.
func (m *MemCache[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	item, ok := m.data[key]
	m.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if m.now().After(item.expAt) {
		m.mu.Lock()
		// A concurrent Set may have refreshed the entry since the read lock was dropped.
		if cur, ok := m.data[key]; ok && m.now().After(cur.expAt) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return zero, false
	}
	return item.val, true
}

// Set stores a value with TTL. A non-positive TTL stores nothing.
func (m *MemCache[V]) Set(key string, v V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memItem[V]{val: v, expAt: m.now().Add(ttl)}
}

// Delete removes key.
func (m *MemCache[V]) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// Purge drops expired entries and returns how many were removed.
func (m *MemCache[V]) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for k, item := range m.data {
		if now.After(item.expAt) {
			delete(m.data, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (m *MemCache[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
