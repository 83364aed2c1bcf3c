package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/botirk38/projectmatch/types"
)

// FIFOBackend implements VectorBackend using FIFO (First In, First Out) eviction policy
type FIFOBackend struct {
	mu       *sync.RWMutex
	entries  map[string]entry
	queue    []string
	capacity int
	clock    clock
}

// NewFIFOBackend creates a new FIFO backend
func NewFIFOBackend(config types.BackendConfig) (*FIFOBackend, error) {
	return &FIFOBackend{
		mu:       &sync.RWMutex{},
		entries:  make(map[string]entry),
		queue:    make([]string, 0, config.Capacity),
		capacity: config.Capacity,
		clock:    newClock(config),
	}, nil
}

// Set stores a vector in the FIFO cache
func (b *FIFOBackend) Set(ctx context.Context, key string, vec types.Vector, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.setLocked(key, vec, ttl)
	return nil
}

func (b *FIFOBackend) setLocked(key string, vec types.Vector, ttl time.Duration) {
	// If key already exists, update it in place
	if _, exists := b.entries[key]; exists {
		b.entries[key] = b.clock.newEntry(vec, ttl)
		return
	}

	// If at capacity, evict the oldest entry (FIFO)
	if len(b.entries) >= b.capacity && b.capacity > 0 {
		oldestKey := b.queue[0]
		b.queue = b.queue[1:]
		delete(b.entries, oldestKey)
	}

	b.entries[key] = b.clock.newEntry(vec, ttl)
	b.queue = append(b.queue, key)
}

// Get retrieves a vector from the FIFO cache
func (b *FIFOBackend) Get(ctx context.Context, key string) (types.Vector, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(b.clock.now()) {
		b.removeLocked(key)
		return nil, false, nil
	}
	return e.value(), true, nil
}

// GetBatch retrieves every live key
func (b *FIFOBackend) GetBatch(ctx context.Context, keys []string) (map[string]types.Vector, error) {
	found := make(map[string]types.Vector, len(keys))
	for _, key := range keys {
		if vec, ok, _ := b.Get(ctx, key); ok {
			found[key] = vec
		}
	}
	return found, nil
}

// SetBatch stores several vectors
func (b *FIFOBackend) SetBatch(ctx context.Context, entries map[string]types.Vector, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, vec := range entries {
		b.setLocked(key, vec, ttl)
	}
	return nil
}

// Delete removes a vector from the FIFO cache
func (b *FIFOBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.removeLocked(key)
	return nil
}

func (b *FIFOBackend) removeLocked(key string) {
	if _, exists := b.entries[key]; !exists {
		return
	}

	delete(b.entries, key)

	// Remove from queue
	for i, qKey := range b.queue {
		if qKey == key {
			b.queue = append(b.queue[:i], b.queue[i+1:]...)
			break
		}
	}
}

// Flush clears all entries from the FIFO cache
func (b *FIFOBackend) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make(map[string]entry)
	b.queue = make([]string, 0, b.capacity)
	return nil
}

// Len returns the number of live entries in the FIFO cache
func (b *FIFOBackend) Len(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	now := b.clock.now()
	count := 0
	for _, e := range b.entries {
		if !e.expired(now) {
			count++
		}
	}
	return count, nil
}

// Close closes the FIFO backend (no-op for in-memory)
func (b *FIFOBackend) Close() error {
	return nil
}
