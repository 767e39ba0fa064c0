package cache

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/queryproxy/internal/core/domain"
)

type memoryEntry struct {
	result     *domain.QueryResult
	insertedAt time.Time
}

// Memory is an in-process Store with lazy expiry on read. Capacity is
// unbounded, which is acceptable for a low-volume query console.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an in-memory cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *Memory) Get(ctx context.Context, key string) (*domain.QueryResult, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if m.now().Sub(entry.insertedAt) >= m.ttl {
		// Stale entries are evicted lazily on read.
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.insertedAt.Equal(entry.insertedAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.result, true, nil
}

func (m *Memory) Put(ctx context.Context, key string, result *domain.QueryResult) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{result: result, insertedAt: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	return nil
}
