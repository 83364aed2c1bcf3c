// Package vectorcache maps content hashes to previously computed vectors.
//
// The Layered cache composes a bounded process-local tier with an optional
// shared remote tier. Remote failures are logged and counted, then treated as
// misses: callers only ever observe a hit or a miss.
package vectorcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/botirk38/projectmatch/metrics"
	"github.com/botirk38/projectmatch/types"
	"go.uber.org/zap"
)

const (
	tierLocal  = "local"
	tierRemote = "remote"
)

// Cache is a best-effort vector store. Implementations never return errors.
type Cache interface {
	Get(ctx context.Context, key string) (types.Vector, bool)
	Set(ctx context.Context, key string, vec types.Vector, ttl time.Duration)
	GetBatch(ctx context.Context, keys []string) map[string]types.Vector
	SetBatch(ctx context.Context, entries map[string]types.Vector, ttl time.Duration)
}

// Key returns the cache key of text: the hex SHA-256 of its exact bytes.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Layered consults local first and remote on a local miss.
type Layered struct {
	local     types.VectorBackend
	remote    types.VectorBackend
	localTTL  time.Duration
	remoteTTL time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures a Layered cache.
type Option func(*Layered)

// WithRemote adds the shared tier. A nil backend keeps the cache local-only.
func WithRemote(remote types.VectorBackend, ttl time.Duration) Option {
	return func(l *Layered) {
		l.remote = remote
		l.remoteTTL = ttl
	}
}

// WithLogger sets the logger used for degraded remote operations.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Layered) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics overrides the default metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Layered) {
		if m != nil {
			l.metrics = m
		}
	}
}

// NewLayered creates a cache over local with entries living localTTL by default.
func NewLayered(local types.VectorBackend, localTTL time.Duration, opts ...Option) *Layered {
	l := &Layered{
		local:    local,
		localTTL: localTTL,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = metrics.Default()
	}
	return l
}

// HasRemote reports whether a shared tier is configured.
func (l *Layered) HasRemote() bool {
	return l.remote != nil
}

func (l *Layered) ttls(ttl time.Duration) (time.Duration, time.Duration) {
	if ttl > 0 {
		return ttl, ttl
	}
	return l.localTTL, l.remoteTTL
}

func (l *Layered) degrade(tier, op string, err error) {
	l.metrics.CacheFailuresTotal.WithLabelValues(tier, op).Inc()
	l.logger.Warn("vector cache tier failed, continuing without it",
		zap.String("tier", tier),
		zap.String("op", op),
		zap.Error(err))
}

func (l *Layered) lookup(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	l.metrics.CacheLookupsTotal.WithLabelValues(tier, result).Inc()
}

// Get returns the vector stored under key, repopulating the local tier on a remote hit.
func (l *Layered) Get(ctx context.Context, key string) (types.Vector, bool) {
	vec, found, err := l.local.Get(ctx, key)
	if err != nil {
		l.degrade(tierLocal, "get", err)
	}
	l.lookup(tierLocal, found)
	if found {
		return vec, true
	}

	if l.remote == nil {
		return nil, false
	}

	vec, found, err = l.remote.Get(ctx, key)
	if err != nil {
		l.degrade(tierRemote, "get", err)
		return nil, false
	}
	l.lookup(tierRemote, found)
	if !found {
		return nil, false
	}

	if err := l.local.Set(ctx, key, vec, l.localTTL); err != nil {
		l.degrade(tierLocal, "set", err)
	}
	return vec, true
}

// Set writes local first, then remote. A remote failure leaves the local write in place.
func (l *Layered) Set(ctx context.Context, key string, vec types.Vector, ttl time.Duration) {
	localTTL, remoteTTL := l.ttls(ttl)

	if err := l.local.Set(ctx, key, vec, localTTL); err != nil {
		l.degrade(tierLocal, "set", err)
	}
	if l.remote == nil {
		return
	}
	if err := l.remote.Set(ctx, key, vec, remoteTTL); err != nil {
		l.degrade(tierRemote, "set", err)
	}
}

// GetBatch returns every key found in either tier.
func (l *Layered) GetBatch(ctx context.Context, keys []string) map[string]types.Vector {
	found, err := l.local.GetBatch(ctx, keys)
	if err != nil {
		l.degrade(tierLocal, "get_batch", err)
		found = make(map[string]types.Vector, len(keys))
	}

	var missing []string
	for _, key := range keys {
		_, ok := found[key]
		l.lookup(tierLocal, ok)
		if !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 || l.remote == nil {
		return found
	}

	fromRemote, err := l.remote.GetBatch(ctx, missing)
	if err != nil {
		l.degrade(tierRemote, "get_batch", err)
		return found
	}
	for _, key := range missing {
		_, ok := fromRemote[key]
		l.lookup(tierRemote, ok)
	}
	if len(fromRemote) == 0 {
		return found
	}

	if err := l.local.SetBatch(ctx, fromRemote, l.localTTL); err != nil {
		l.degrade(tierLocal, "set_batch", err)
	}
	for key, vec := range fromRemote {
		found[key] = vec
	}
	return found
}

// SetBatch writes every entry to both tiers.
func (l *Layered) SetBatch(ctx context.Context, entries map[string]types.Vector, ttl time.Duration) {
	if len(entries) == 0 {
		return
	}
	localTTL, remoteTTL := l.ttls(ttl)

	if err := l.local.SetBatch(ctx, entries, localTTL); err != nil {
		l.degrade(tierLocal, "set_batch", err)
	}
	if l.remote == nil {
		return
	}
	if err := l.remote.SetBatch(ctx, entries, remoteTTL); err != nil {
		l.degrade(tierRemote, "set_batch", err)
	}
}

// Close releases both tiers.
func (l *Layered) Close() error {
	err := l.local.Close()
	if l.remote != nil {
		if rerr := l.remote.Close(); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}
