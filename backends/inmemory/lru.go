package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/botirk38/projectmatch/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUBackend implements VectorBackend using LRU eviction policy
type LRUBackend struct {
	mu    *sync.RWMutex
	cache *lru.Cache[string, entry]
	clock clock
}

// NewLRUBackend creates a new LRU backend
func NewLRUBackend(config types.BackendConfig) (*LRUBackend, error) {
	lruCache, err := lru.New[string, entry](config.Capacity)
	if err != nil {
		return nil, err
	}

	return &LRUBackend{
		mu:    &sync.RWMutex{},
		cache: lruCache,
		clock: newClock(config),
	}, nil
}

// Set stores a vector in the LRU cache
func (b *LRUBackend) Set(ctx context.Context, key string, vec types.Vector, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache.Add(key, b.clock.newEntry(vec, ttl))
	return nil
}

// Get retrieves a vector from the LRU cache, dropping it if expired
func (b *LRUBackend) Get(ctx context.Context, key string) (types.Vector, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vec := b.getLocked(key)
	return vec, vec != nil, nil
}

func (b *LRUBackend) getLocked(key string) types.Vector {
	e, ok := b.cache.Get(key)
	if !ok {
		return nil
	}
	if e.expired(b.clock.now()) {
		b.cache.Remove(key)
		return nil
	}
	return e.value()
}

// GetBatch retrieves every live key
func (b *LRUBackend) GetBatch(ctx context.Context, keys []string) (map[string]types.Vector, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	found := make(map[string]types.Vector, len(keys))
	for _, key := range keys {
		if vec := b.getLocked(key); vec != nil {
			found[key] = vec
		}
	}
	return found, nil
}

// SetBatch stores several vectors
func (b *LRUBackend) SetBatch(ctx context.Context, entries map[string]types.Vector, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, vec := range entries {
		b.cache.Add(key, b.clock.newEntry(vec, ttl))
	}
	return nil
}

// Delete removes a vector from the LRU cache
func (b *LRUBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache.Remove(key)
	return nil
}

// Flush clears all entries from the LRU cache
func (b *LRUBackend) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cache.Purge()
	return nil
}

// Len returns the number of live entries in the LRU cache
func (b *LRUBackend) Len(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.now()
	for _, key := range b.cache.Keys() {
		if e, ok := b.cache.Peek(key); ok && e.expired(now) {
			b.cache.Remove(key)
		}
	}
	return b.cache.Len(), nil
}

// Close closes the LRU backend (no-op for in-memory)
func (b *LRUBackend) Close() error {
	return nil
}
