package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCacheRepository - реализация кеша в памяти процесса.
// Используется в тестах и в локальной разработке без Redis.
type MemoryCacheRepository struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryCacheRepository() CacheRepositoryInterface {
	return &MemoryCacheRepository{entries: make(map[string]memoryEntry)}
}

func (r *MemoryCacheRepository) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return "", ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		r.mu.Lock()
		delete(r.entries, key)
		r.mu.Unlock()
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

func (r *MemoryCacheRepository) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}
	r.mu.Lock()
	r.entries[key] = memoryEntry{value: fmt.Sprintf("%v", value), expiresAt: expiresAt}
	r.mu.Unlock()
	return nil
}

func (r *MemoryCacheRepository) Del(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	for _, key := range keys {
		delete(r.entries, key)
	}
	r.mu.Unlock()
	return nil
}

func (r *MemoryCacheRepository) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[key]
	if !ok {
		return false, nil
	}
	entry.expiresAt = time.Now().Add(expiration)
	r.entries[key] = entry
	return true, nil
}
