package session

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// MemoryStorage implements Storage using in-memory storage
type MemoryStorage struct {
	mu     sync.RWMutex
	items  map[string]memoryItem
	ticker *time.Ticker
	done   chan struct{}
}

// NewMemoryStorage creates a new in-memory storage.
// A positive cleanupInterval starts a goroutine that drops expired items.
func NewMemoryStorage(cleanupInterval time.Duration) *MemoryStorage {
	m := &MemoryStorage{
		items: make(map[string]memoryItem),
		done:  make(chan struct{}),
	}

	if cleanupInterval > 0 {
		m.ticker = time.NewTicker(cleanupInterval)
		go m.cleanupLoop()
	}

	return m
}

// Get returns a copy of the stored value
func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	item, exists := m.items[key]
	m.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	if item.expired(time.Now()) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return nil, nil
	}

	return append([]byte(nil), item.value...), nil
}

// Set stores a copy of the value
func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = item
	return nil
}

// Delete removes the keys
func (m *MemoryStorage) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

// DeleteExpired removes all expired items
func (m *MemoryStorage) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, item := range m.items {
		if item.expired(now) {
			delete(m.items, key)
		}
	}

	return nil
}

// Len returns the number of stored items, expired ones included
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close stops the cleanup goroutine
func (m *MemoryStorage) Close() error {
	if m.ticker != nil {
		m.ticker.Stop()
		close(m.done)
		m.ticker = nil
	}
	return nil
}

func (m *MemoryStorage) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}
