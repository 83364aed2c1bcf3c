package model

import (
	"sync/atomic"
)

// Store publishes the current snapshot. The zero value holds no snapshot.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store holding snap, which may be nil.
func NewStore(snap *Snapshot) *Store {
	s := &Store{}
	if snap != nil {
		s.current.Store(snap)
	}
	return s
}

// Snapshot returns the current snapshot or nil. A nil store holds none.
func (s *Store) Snapshot() *Snapshot {
	if s == nil {
		return nil
	}
	return s.current.Load()
}

// Swap installs snap and returns the snapshot it replaced.
func (s *Store) Swap(snap *Snapshot) *Snapshot {
	return s.current.Swap(snap)
}

// LoadFile reads the snapshot at path and swaps it in. On error the current
// snapshot stays in place.
func (s *Store) LoadFile(path string) (*Snapshot, error) {
	snap, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	s.Swap(snap)
	return snap, nil
}
