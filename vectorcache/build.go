package vectorcache

import (
	"fmt"
	"time"

	"github.com/botirk38/projectmatch/backends"
	"github.com/botirk38/projectmatch/metrics"
	"github.com/botirk38/projectmatch/types"
	"go.uber.org/zap"
)

// Config describes both tiers of a Layered cache.
type Config struct {
	Policy    types.BackendType
	Capacity  int
	LocalTTL  time.Duration
	RemoteTTL time.Duration

	// RedisURL enables the shared tier when set.
	RedisURL     string
	Prefix       string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Metrics receives cache and breaker series; nil uses the default registry.
	Metrics *metrics.Metrics
}

// New builds a Layered cache from cfg. An unreachable remote tier is logged
// and skipped; only a broken local tier is an error.
func New(cfg Config, logger *zap.Logger) (*Layered, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Policy == types.BackendRedis {
		return nil, types.NewConfigurationError("cache.policy", "%q is not an in-memory policy", cfg.Policy)
	}

	factory := &backends.BackendFactory{}
	local, err := factory.NewBackend(cfg.Policy, types.BackendConfig{
		Capacity: cfg.Capacity,
		TTL:      cfg.LocalTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache tier: %w", err)
	}

	opts := []Option{WithLogger(logger), WithMetrics(cfg.Metrics)}
	if cfg.RedisURL != "" {
		remote, err := factory.NewBackend(types.BackendRedis, types.BackendConfig{
			ConnectionString: cfg.RedisURL,
			Prefix:           cfg.Prefix,
			TTL:              cfg.RemoteTTL,
			DialTimeout:      cfg.DialTimeout,
			ReadTimeout:      cfg.ReadTimeout,
			WriteTimeout:     cfg.WriteTimeout,
			Metrics:          cfg.Metrics,
		})
		if err != nil {
			logger.Warn("remote vector cache unavailable, starting local-only", zap.Error(err))
		} else {
			opts = append(opts, WithRemote(remote, cfg.RemoteTTL))
		}
	}

	return NewLayered(local, cfg.LocalTTL, opts...), nil
}
