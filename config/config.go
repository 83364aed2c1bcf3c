// Package config loads projectmatch settings from defaults, an optional YAML
// file and PROJECTMATCH_* environment variables, in increasing priority.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/botirk38/projectmatch/chunker"
	"github.com/botirk38/projectmatch/providers"
	"github.com/botirk38/projectmatch/scoring"
	"github.com/botirk38/projectmatch/types"
	"github.com/botirk38/projectmatch/vectorcache"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override:
// PROJECTMATCH_SCORING_TOP_N sets scoring.top_n.
const EnvPrefix = "PROJECTMATCH_"

// MaxQueryTopN bounds the top_n of ad-hoc profile queries.
const MaxQueryTopN = 50

// Config is built once at startup and passed by value to constructors.
type Config struct {
	Scoring     ScoringConfig     `koanf:"scoring"`
	Cache       CacheConfig       `koanf:"cache"`
	Aggregation AggregationConfig `koanf:"aggregation"`
	Store       StoreConfig       `koanf:"store"`
	Batch       BatchConfig       `koanf:"batch"`
	Encoder     EncoderConfig     `koanf:"encoder"`
	Chunk       ChunkConfig       `koanf:"chunk"`
	Log         LogConfig         `koanf:"log"`
}

// ScoringConfig holds the combined-score weights and cutoffs.
type ScoringConfig struct {
	SemanticWeight      float64 `koanf:"semantic_weight"`
	CategoryWeight      float64 `koanf:"category_weight"`
	TechWeight          float64 `koanf:"tech_weight"`
	PopularityWeight    float64 `koanf:"popularity_weight"`
	TopN                int     `koanf:"top_n"`
	MinSimilarity       float64 `koanf:"min_similarity"`
	PopularityThreshold float64 `koanf:"popularity_threshold"`
	Metric              string  `koanf:"metric"`
}

// CacheConfig configures both vector cache tiers.
type CacheConfig struct {
	Policy       string        `koanf:"policy"`
	Capacity     int           `koanf:"capacity"`
	LocalTTL     time.Duration `koanf:"local_ttl"`
	RemoteTTL    time.Duration `koanf:"remote_ttl"`
	RedisURL     string        `koanf:"redis_url"`
	Prefix       string        `koanf:"prefix"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// AggregationConfig configures profile aggregation queries.
type AggregationConfig struct {
	DefaultTopN  int    `koanf:"default_top_n"`
	MaxTopN      int    `koanf:"max_top_n"`
	SnapshotPath string `koanf:"snapshot_path"`
}

// StoreConfig locates the result database.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// BatchConfig sizes the batch scoring worker pool.
type BatchConfig struct {
	Workers int `koanf:"workers"`
}

// EncoderConfig selects the embedding provider.
type EncoderConfig struct {
	Provider   string `koanf:"provider"`
	APIKey     string `koanf:"api_key"`
	BaseURL    string `koanf:"base_url"`
	Model      string `koanf:"model"`
	Dimensions int    `koanf:"dimensions"`
	BatchSize  int    `koanf:"batch_size"`
}

// ChunkConfig enables splitting of over-long profile text.
type ChunkConfig struct {
	Enabled      bool `koanf:"enabled"`
	MaxTokens    int  `koanf:"max_tokens"`
	ChunkSize    int  `koanf:"chunk_size"`
	ChunkOverlap int  `koanf:"chunk_overlap"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	sc := scoring.DefaultConfig()
	cc := chunker.DefaultConfig()

	return Config{
		Scoring: ScoringConfig{
			SemanticWeight:      sc.Weights.Semantic,
			CategoryWeight:      sc.Weights.Category,
			TechWeight:          sc.Weights.Tech,
			PopularityWeight:    sc.Weights.Popularity,
			TopN:                sc.TopN,
			MinSimilarity:       sc.MinSimilarity,
			PopularityThreshold: sc.PopularityThreshold,
			Metric:              sc.Metric,
		},
		Cache: CacheConfig{
			Policy:       string(types.BackendLRU),
			Capacity:     10000,
			LocalTTL:     time.Hour,
			RemoteTTL:    7 * 24 * time.Hour,
			Prefix:       "projectmatch:vec:",
			DialTimeout:  250 * time.Millisecond,
			ReadTimeout:  100 * time.Millisecond,
			WriteTimeout: 100 * time.Millisecond,
		},
		Aggregation: AggregationConfig{
			DefaultTopN: 10,
			MaxTopN:     MaxQueryTopN,
		},
		Store: StoreConfig{
			Path: "projectmatch.db",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Encoder: EncoderConfig{
			Provider:   string(types.ProviderOpenAI),
			Dimensions: types.SemanticDimensions,
		},
		Chunk: ChunkConfig{
			Enabled:      true,
			MaxTokens:    cc.MaxTokens,
			ChunkSize:    cc.ChunkSize,
			ChunkOverlap: cc.ChunkOverlap,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load layers defaults, the YAML file at path (skipped when empty) and the
// environment, then validates the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envTransform maps PROJECTMATCH_SCORING_TOP_N to scoring.top_n. Section
// names hold no underscores, so the first one separates section and key.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Validate reports the first malformed value as a *types.ConfigurationError.
func (c Config) Validate() error {
	if err := c.ToScoring().Validate(); err != nil {
		return err
	}

	switch types.BackendType(c.Cache.Policy) {
	case types.BackendLRU, types.BackendLFU, types.BackendFIFO:
	default:
		return types.NewConfigurationError("cache.policy", "must be lru, lfu or fifo, got %q", c.Cache.Policy)
	}
	if c.Cache.Capacity <= 0 {
		return types.NewConfigurationError("cache.capacity", "must be positive, got %d", c.Cache.Capacity)
	}
	if c.Cache.LocalTTL < 0 {
		return types.NewConfigurationError("cache.local_ttl", "must not be negative, got %s", c.Cache.LocalTTL)
	}
	if c.Cache.RemoteTTL < 0 {
		return types.NewConfigurationError("cache.remote_ttl", "must not be negative, got %s", c.Cache.RemoteTTL)
	}

	if c.Aggregation.MaxTopN < 1 || c.Aggregation.MaxTopN > MaxQueryTopN {
		return types.NewConfigurationError("aggregation.max_top_n", "must be within [1,%d], got %d", MaxQueryTopN, c.Aggregation.MaxTopN)
	}
	if c.Aggregation.DefaultTopN < 1 || c.Aggregation.DefaultTopN > c.Aggregation.MaxTopN {
		return types.NewConfigurationError("aggregation.default_top_n", "must be within [1,%d], got %d", c.Aggregation.MaxTopN, c.Aggregation.DefaultTopN)
	}

	if c.Batch.Workers <= 0 {
		return types.NewConfigurationError("batch.workers", "must be positive, got %d", c.Batch.Workers)
	}

	switch types.ProviderType(c.Encoder.Provider) {
	case types.ProviderOpenAI, types.ProviderGemini:
	default:
		return types.NewConfigurationError("encoder.provider", "must be openai or gemini, got %q", c.Encoder.Provider)
	}
	if c.Encoder.Dimensions <= 0 {
		return types.NewConfigurationError("encoder.dimensions", "must be positive, got %d", c.Encoder.Dimensions)
	}

	if c.Chunk.Enabled {
		if err := c.ToChunker().Validate(); err != nil {
			return types.NewConfigurationError("chunk", "%v", err)
		}
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return types.NewConfigurationError("log.level", "%v", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return types.NewConfigurationError("log.format", "must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// ToScoring converts the scoring section for scoring.NewScorer.
func (c Config) ToScoring() scoring.Config {
	return scoring.Config{
		Weights: types.SimilarityWeights{
			Semantic:   c.Scoring.SemanticWeight,
			Category:   c.Scoring.CategoryWeight,
			Tech:       c.Scoring.TechWeight,
			Popularity: c.Scoring.PopularityWeight,
		},
		TopN:                c.Scoring.TopN,
		MinSimilarity:       c.Scoring.MinSimilarity,
		PopularityThreshold: c.Scoring.PopularityThreshold,
		Metric:              c.Scoring.Metric,
	}
}

// ToVectorCache converts the cache section for vectorcache.New.
func (c Config) ToVectorCache() vectorcache.Config {
	return vectorcache.Config{
		Policy:       types.BackendType(c.Cache.Policy),
		Capacity:     c.Cache.Capacity,
		LocalTTL:     c.Cache.LocalTTL,
		RemoteTTL:    c.Cache.RemoteTTL,
		RedisURL:     c.Cache.RedisURL,
		Prefix:       c.Cache.Prefix,
		DialTimeout:  c.Cache.DialTimeout,
		ReadTimeout:  c.Cache.ReadTimeout,
		WriteTimeout: c.Cache.WriteTimeout,
	}
}

// ToProvider converts the encoder section for providers.New.
func (c Config) ToProvider() providers.Config {
	return providers.Config{
		Provider:   types.ProviderType(c.Encoder.Provider),
		APIKey:     c.Encoder.APIKey,
		BaseURL:    c.Encoder.BaseURL,
		Model:      c.Encoder.Model,
		Dimensions: c.Encoder.Dimensions,
		BatchSize:  c.Encoder.BatchSize,
	}
}

// ToChunker converts the chunk section for chunker.NewTokenSplitter.
func (c Config) ToChunker() chunker.Config {
	return chunker.Config{
		MaxTokens:    c.Chunk.MaxTokens,
		ChunkSize:    c.Chunk.ChunkSize,
		ChunkOverlap: c.Chunk.ChunkOverlap,
	}
}
