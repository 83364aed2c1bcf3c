// Package inmemory provides the process-local tier of the vector cache.
package inmemory

import (
	"slices"
	"time"

	"github.com/botirk38/projectmatch/types"
)

// entry is a cached vector with its absolute expiry. A zero expiresAt never expires.
// The vector is owned by the entry: it is copied on the way in and out.
type entry struct {
	vector    types.Vector
	expiresAt time.Time
}

func (e entry) value() types.Vector {
	return slices.Clone(e.vector)
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// clock holds the default ttl and the time source shared by the in-memory backends.
type clock struct {
	ttl time.Duration
	now func() time.Time
}

func newClock(config types.BackendConfig) clock {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return clock{ttl: config.TTL, now: now}
}

// newEntry stamps vec with its expiry; ttl <= 0 falls back to the backend default.
func (c clock) newEntry(vec types.Vector, ttl time.Duration) entry {
	if ttl <= 0 {
		ttl = c.ttl
	}
	e := entry{vector: slices.Clone(vec)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	return e
}
