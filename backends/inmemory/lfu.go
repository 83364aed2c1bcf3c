package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/botirk38/projectmatch/types"
)

// lfuEntry wraps an entry with frequency tracking
type lfuEntry struct {
	entry     entry
	frequency int
	seq       uint64
}

// LFUBackend implements VectorBackend using LFU (Least Frequently Used) eviction policy
type LFUBackend struct {
	mu       *sync.RWMutex
	entries  map[string]*lfuEntry
	capacity int
	seq      uint64
	clock    clock
}

// NewLFUBackend creates a new LFU backend
func NewLFUBackend(config types.BackendConfig) (*LFUBackend, error) {
	return &LFUBackend{
		mu:       &sync.RWMutex{},
		entries:  make(map[string]*lfuEntry),
		capacity: config.Capacity,
		clock:    newClock(config),
	}, nil
}

// Set stores a vector in the LFU cache
func (b *LFUBackend) Set(ctx context.Context, key string, vec types.Vector, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.setLocked(key, vec, ttl)
	return nil
}

func (b *LFUBackend) setLocked(key string, vec types.Vector, ttl time.Duration) {
	// If key already exists, update it and increment frequency
	if existing, exists := b.entries[key]; exists {
		existing.entry = b.clock.newEntry(vec, ttl)
		existing.frequency++
		return
	}

	if len(b.entries) >= b.capacity && b.capacity > 0 {
		b.dropExpired()
	}
	if len(b.entries) >= b.capacity && b.capacity > 0 {
		b.evictLFU()
	}

	b.seq++
	b.entries[key] = &lfuEntry{
		entry:     b.clock.newEntry(vec, ttl),
		frequency: 1,
		seq:       b.seq,
	}
}

// evictLFU removes the least frequently used entry, oldest first on ties
func (b *LFUBackend) evictLFU() {
	var lfuKey string
	var victim *lfuEntry

	for key, e := range b.entries {
		if victim == nil || e.frequency < victim.frequency ||
			(e.frequency == victim.frequency && e.seq < victim.seq) {
			victim = e
			lfuKey = key
		}
	}

	delete(b.entries, lfuKey)
}

func (b *LFUBackend) dropExpired() {
	now := b.clock.now()
	for key, e := range b.entries {
		if e.entry.expired(now) {
			delete(b.entries, key)
		}
	}
}

// Get retrieves a vector from the LFU cache and increments its frequency
func (b *LFUBackend) Get(ctx context.Context, key string) (types.Vector, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	vec := b.getLocked(key)
	return vec, vec != nil, nil
}

func (b *LFUBackend) getLocked(key string) types.Vector {
	e, ok := b.entries[key]
	if !ok {
		return nil
	}
	if e.entry.expired(b.clock.now()) {
		delete(b.entries, key)
		return nil
	}
	e.frequency++
	return e.entry.value()
}

// GetBatch retrieves every live key
func (b *LFUBackend) GetBatch(ctx context.Context, keys []string) (map[string]types.Vector, error) {
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
func (b *LFUBackend) SetBatch(ctx context.Context, entries map[string]types.Vector, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, vec := range entries {
		b.setLocked(key, vec, ttl)
	}
	return nil
}

// Delete removes a vector from the LFU cache
func (b *LFUBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.entries, key)
	return nil
}

// Flush clears all entries from the LFU cache
func (b *LFUBackend) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = make(map[string]*lfuEntry)
	return nil
}

// Len returns the number of live entries in the LFU cache
func (b *LFUBackend) Len(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dropExpired()
	return len(b.entries), nil
}

// Close closes the LFU backend (no-op for in-memory)
func (b *LFUBackend) Close() error {
	return nil
}
