package cache

import (
	"sync"
	"time"

	"github.com/sentinel-news/sentinel/app/feed"
)

// Cache memoizes adapter results for a short TTL. Keys must encode every
// parameter that affects the adapter's output.
type Cache interface {
	Get(key string) ([]feed.Item, bool)
	Set(key string, items []feed.Item)
	Len() int
}

type memoryEntry struct {
	items    []feed.Item
	storedAt time.Time
}

// Memory is the default in-process cache: a mutex-guarded map with lazy
// expiry. Stale entries are replaced on the next Set, never purged, so
// the map grows with the number of distinct keys seen during process
// lifetime.
type Memory struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

var _ Cache = (*Memory)(nil)

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (m *Memory) Get(key string) ([]feed.Item, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Since(entry.storedAt) >= m.ttl {
		return nil, false
	}

	items := make([]feed.Item, len(entry.items))
	copy(items, entry.items)
	return items, true
}

func (m *Memory) Set(key string, items []feed.Item) {
	stored := make([]feed.Item, len(items))
	copy(stored, items)

	m.mu.Lock()
	m.entries[key] = memoryEntry{items: stored, storedAt: time.Now()}
	m.mu.Unlock()
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
