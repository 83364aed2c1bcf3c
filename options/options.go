// Package options provides functional options for configuring Recommender instances.
package options

import (
	"context"
	"errors"
	"time"

	"github.com/botirk38/projectmatch/chunker"
	"github.com/botirk38/projectmatch/config"
	"github.com/botirk38/projectmatch/metrics"
	"github.com/botirk38/projectmatch/model"
	"github.com/botirk38/projectmatch/providers"
	"github.com/botirk38/projectmatch/scoring"
	"github.com/botirk38/projectmatch/store"
	"github.com/botirk38/projectmatch/types"
	"github.com/botirk38/projectmatch/vectorcache"
	"go.uber.org/zap"
)

// Option represents a configuration option for a Recommender
type Option func(*Config) error

// Config holds the configuration for building a Recommender. Components given
// as settings (CacheSettings, Provider, Chunking) are built by the Recommender
// so they share its logger.
type Config struct {
	Scoring scoring.Config

	// Vector cache: a ready cache wins over settings
	Cache         vectorcache.Cache
	CacheSettings *vectorcache.Config
	CacheTTL      time.Duration

	// Encoder: a ready encoder wins over provider settings
	Encoder            types.Encoder
	Provider           *providers.Config
	Chunking           *chunker.Config
	SemanticDimensions int

	Models  *model.Store
	Results types.ResultStore

	Workers     int
	DefaultTopN int
	MaxTopN     int

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Scoring:            scoring.DefaultConfig(),
		SemanticDimensions: types.SemanticDimensions,
		Workers:            4,
		DefaultTopN:        10,
		MaxTopN:            config.MaxQueryTopN,
	}
}

// Apply applies all the given options to the config
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if c.SemanticDimensions <= 0 {
		return types.NewConfigurationError("encoder.dimensions", "must be positive, got %d", c.SemanticDimensions)
	}
	if c.Workers <= 0 {
		return types.NewConfigurationError("batch.workers", "must be positive, got %d", c.Workers)
	}
	if c.MaxTopN < 1 || c.MaxTopN > config.MaxQueryTopN {
		return types.NewConfigurationError("aggregation.max_top_n", "must be within [1,%d], got %d", config.MaxQueryTopN, c.MaxTopN)
	}
	if c.DefaultTopN < 1 || c.DefaultTopN > c.MaxTopN {
		return types.NewConfigurationError("aggregation.default_top_n", "must be within [1,%d], got %d", c.MaxTopN, c.DefaultTopN)
	}
	if c.CacheTTL < 0 {
		return types.NewConfigurationError("cache.local_ttl", "must not be negative, got %s", c.CacheTTL)
	}
	return nil
}

// FromConfig applies every section of a loaded configuration except the
// encoder, which needs credentials and is opted into with WithProvider.
func FromConfig(cfg config.Config) Option {
	return func(c *Config) error {
		c.Scoring = cfg.ToScoring()
		cacheCfg := cfg.ToVectorCache()
		c.CacheSettings = &cacheCfg
		c.SemanticDimensions = cfg.Encoder.Dimensions
		if cfg.Chunk.Enabled {
			chunkCfg := cfg.ToChunker()
			c.Chunking = &chunkCfg
		} else {
			c.Chunking = nil
		}
		c.Workers = cfg.Batch.Workers
		c.DefaultTopN = cfg.Aggregation.DefaultTopN
		c.MaxTopN = cfg.Aggregation.MaxTopN
		return nil
	}
}

// WithScoring replaces the scoring configuration
func WithScoring(sc scoring.Config) Option {
	return func(cfg *Config) error {
		if err := sc.Validate(); err != nil {
			return err
		}
		cfg.Scoring = sc
		return nil
	}
}

// WithWeights replaces only the combined-score weights
func WithWeights(w types.SimilarityWeights) Option {
	return func(cfg *Config) error {
		sc := cfg.Scoring
		sc.Weights = w
		if err := sc.Validate(); err != nil {
			return err
		}
		cfg.Scoring = sc
		return nil
	}
}

// WithLRUCache sets up an in-memory LRU vector cache
func WithLRUCache(capacity int, ttl time.Duration) Option {
	return withLocalCache(types.BackendLRU, capacity, ttl)
}

// WithFIFOCache sets up an in-memory FIFO vector cache
func WithFIFOCache(capacity int, ttl time.Duration) Option {
	return withLocalCache(types.BackendFIFO, capacity, ttl)
}

// WithLFUCache sets up an in-memory LFU vector cache
func WithLFUCache(capacity int, ttl time.Duration) Option {
	return withLocalCache(types.BackendLFU, capacity, ttl)
}

func withLocalCache(policy types.BackendType, capacity int, ttl time.Duration) Option {
	return func(cfg *Config) error {
		if capacity <= 0 {
			return types.NewConfigurationError("cache.capacity", "must be positive, got %d", capacity)
		}
		settings := cfg.cacheSettings()
		settings.Policy = policy
		settings.Capacity = capacity
		settings.LocalTTL = ttl
		return nil
	}
}

// WithRedisCache adds a shared Redis tier behind the local cache
func WithRedisCache(url string, ttl time.Duration) Option {
	return func(cfg *Config) error {
		if url == "" {
			return errors.New("redis url cannot be empty")
		}
		settings := cfg.cacheSettings()
		settings.RedisURL = url
		settings.RemoteTTL = ttl
		return nil
	}
}

func (c *Config) cacheSettings() *vectorcache.Config {
	if c.CacheSettings == nil {
		c.CacheSettings = &vectorcache.Config{Policy: types.BackendLRU, Capacity: 10000}
	}
	return c.CacheSettings
}

// WithCache allows using a pre-built vector cache
func WithCache(cache vectorcache.Cache) Option {
	return func(cfg *Config) error {
		if cache == nil {
			return errors.New("cache cannot be nil")
		}
		cfg.Cache = cache
		return nil
	}
}

// WithCacheTTL sets the ttl of freshly computed vectors; 0 keeps the tier defaults
func WithCacheTTL(ttl time.Duration) Option {
	return func(cfg *Config) error {
		cfg.CacheTTL = ttl
		return nil
	}
}

// WithProvider sets up an embedding provider from its settings
func WithProvider(pc providers.Config) Option {
	return func(cfg *Config) error {
		if pc.Dimensions > 0 {
			cfg.SemanticDimensions = pc.Dimensions
		} else {
			pc.Dimensions = cfg.SemanticDimensions
		}
		cfg.Provider = &pc
		return nil
	}
}

// WithOpenAIProvider sets up the OpenAI embedding provider
func WithOpenAIProvider(apiKey string, model ...string) Option {
	pc := providers.Config{Provider: types.ProviderOpenAI, APIKey: apiKey}
	if len(model) > 0 {
		pc.Model = model[0]
	}
	return WithProvider(pc)
}

// WithGeminiProvider sets up the Gemini embedding provider
func WithGeminiProvider(apiKey string, model ...string) Option {
	pc := providers.Config{Provider: types.ProviderGemini, APIKey: apiKey}
	if len(model) > 0 {
		pc.Model = model[0]
	}
	return WithProvider(pc)
}

// WithChunking splits over-long text before it reaches the provider
func WithChunking(cc chunker.Config) Option {
	return func(cfg *Config) error {
		if err := cc.Validate(); err != nil {
			return types.NewConfigurationError("chunk", "%v", err)
		}
		cfg.Chunking = &cc
		return nil
	}
}

// WithEncoder allows using a pre-configured encoder
func WithEncoder(encoder types.Encoder) Option {
	return func(cfg *Config) error {
		if encoder == nil {
			return errors.New("encoder cannot be nil")
		}
		cfg.Encoder = encoder
		cfg.SemanticDimensions = encoder.Dimensions()
		return nil
	}
}

// WithModelStore shares a snapshot store with the Recommender
func WithModelStore(models *model.Store) Option {
	return func(cfg *Config) error {
		if models == nil {
			return errors.New("model store cannot be nil")
		}
		cfg.Models = models
		return nil
	}
}

// WithSnapshot starts the Recommender with snap loaded
func WithSnapshot(snap *model.Snapshot) Option {
	return func(cfg *Config) error {
		if snap == nil {
			return errors.New("snapshot cannot be nil")
		}
		cfg.Models = model.NewStore(snap)
		return nil
	}
}

// WithSnapshotFile loads the persisted snapshot at path
func WithSnapshotFile(path string) Option {
	return func(cfg *Config) error {
		snap, err := model.LoadFile(path)
		if err != nil {
			return err
		}
		cfg.Models = model.NewStore(snap)
		return nil
	}
}

// WithResultStore allows using a pre-opened result store
func WithResultStore(results types.ResultStore) Option {
	return func(cfg *Config) error {
		if results == nil {
			return errors.New("result store cannot be nil")
		}
		cfg.Results = results
		return nil
	}
}

// WithSQLiteStore opens the SQLite result store at path
func WithSQLiteStore(path string) Option {
	return func(cfg *Config) error {
		repo, err := store.Open(context.Background(), path)
		if err != nil {
			return err
		}
		cfg.Results = repo
		return nil
	}
}

// WithWorkers sizes the batch worker pool
func WithWorkers(n int) Option {
	return func(cfg *Config) error {
		if n <= 0 {
			return types.NewConfigurationError("batch.workers", "must be positive, got %d", n)
		}
		cfg.Workers = n
		return nil
	}
}

// WithQueryTopN sets the default and maximum top_n of profile queries
func WithQueryTopN(defaultTopN, maxTopN int) Option {
	return func(cfg *Config) error {
		cfg.DefaultTopN = defaultTopN
		cfg.MaxTopN = maxTopN
		return nil
	}
}

// WithLogger sets the logger shared by every component
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *Config) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.Logger = logger
		return nil
	}
}

// WithMetrics reports to m instead of the default registry
func WithMetrics(m *metrics.Metrics) Option {
	return func(cfg *Config) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		cfg.Metrics = m
		return nil
	}
}
