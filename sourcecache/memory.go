package sourcecache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    string
	storedAt time.Time
}

// Memory is a thread-safe in-memory Store with optional TTL.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory creates a Memory store. ttl <= 0 means entries never expire.
func NewMemory(ttl time.Duration) *Memory {
	if ttl < 0 {
		ttl = 0
	}
	return &Memory{items: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

// Get returns a value that exists and has not expired. Expired entries are dropped.
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if m.ttl > 0 && m.now().Sub(e.storedAt) > m.ttl {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur.storedAt.Equal(e.storedAt) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value under key and resets its age.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = memoryEntry{value: value, storedAt: m.now()}
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet dropped.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Clear removes all entries.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.items = make(map[string]memoryEntry)
	m.mu.Unlock()
}
