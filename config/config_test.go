package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/botirk38/projectmatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 10, cfg.Scoring.TopN)
	assert.Equal(t, time.Hour, cfg.Cache.LocalTTL)
	assert.Equal(t, types.SemanticDimensions, cfg.Encoder.Dimensions)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projectmatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scoring:
  semantic_weight: 0.1
  category_weight: 0.3
  tech_weight: 0.6
  popularity_weight: 0
  min_similarity: 0
cache:
  policy: lfu
  local_ttl: 5m
  redis_url: redis://localhost:6379/1
aggregation:
  snapshot_path: /var/lib/projectmatch/similarity.gob.gz
`), 0o600))

	t.Setenv("PROJECTMATCH_SCORING_TOP_N", "25")
	t.Setenv("PROJECTMATCH_CACHE_REMOTE_TTL", "48h")
	t.Setenv("PROJECTMATCH_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.1, cfg.Scoring.SemanticWeight)
	assert.Equal(t, 0.6, cfg.Scoring.TechWeight)
	assert.Equal(t, 0.0, cfg.Scoring.PopularityWeight)
	assert.Equal(t, 25, cfg.Scoring.TopN)
	assert.Equal(t, "lfu", cfg.Cache.Policy)
	assert.Equal(t, 5*time.Minute, cfg.Cache.LocalTTL)
	assert.Equal(t, 48*time.Hour, cfg.Cache.RemoteTTL)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Cache.RedisURL)
	assert.Equal(t, "/var/lib/projectmatch/similarity.gob.gz", cfg.Aggregation.SnapshotPath)
	assert.Equal(t, "debug", cfg.Log.Level)

	// untouched values keep their defaults
	assert.Equal(t, 4, cfg.Batch.Workers)

	sc := cfg.ToScoring()
	assert.Equal(t, types.SimilarityWeights{Semantic: 0.1, Category: 0.3, Tech: 0.6}, sc.Weights)
	assert.Equal(t, types.BackendLFU, cfg.ToVectorCache().Policy)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("PROJECTMATCH_SCORING_SEMANTIC_WEIGHT", "-1")

	_, err := Load("")
	var cfgErr *types.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "scoring.semantic_weight", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"negative weight", func(c *Config) { c.Scoring.TechWeight = -0.5 }, "scoring.tech_weight"},
		{"zero top_n", func(c *Config) { c.Scoring.TopN = 0 }, "scoring.top_n"},
		{"redis as local policy", func(c *Config) { c.Cache.Policy = "redis" }, "cache.policy"},
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }, "cache.capacity"},
		{"negative local ttl", func(c *Config) { c.Cache.LocalTTL = -time.Second }, "cache.local_ttl"},
		{"negative remote ttl", func(c *Config) { c.Cache.RemoteTTL = -time.Second }, "cache.remote_ttl"},
		{"max top_n above 50", func(c *Config) { c.Aggregation.MaxTopN = 51 }, "aggregation.max_top_n"},
		{"default above max", func(c *Config) { c.Aggregation.DefaultTopN = 60 }, "aggregation.default_top_n"},
		{"zero workers", func(c *Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"unknown provider", func(c *Config) { c.Encoder.Provider = "cohere" }, "encoder.provider"},
		{"zero dimensions", func(c *Config) { c.Encoder.Dimensions = 0 }, "encoder.dimensions"},
		{"bad chunking", func(c *Config) { c.Chunk.ChunkOverlap = c.Chunk.ChunkSize }, "chunk"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			var cfgErr *types.ConfigurationError
			require.ErrorAs(t, cfg.Validate(), &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	t.Run("disabled chunking is not validated", func(t *testing.T) {
		cfg := Default()
		cfg.Chunk.Enabled = false
		cfg.Chunk.ChunkSize = 0
		assert.NoError(t, cfg.Validate())
	})
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "scoring.top_n", envTransform("PROJECTMATCH_SCORING_TOP_N"))
	assert.Equal(t, "cache.redis_url", envTransform("PROJECTMATCH_CACHE_REDIS_URL"))
	assert.Equal(t, "log.level", envTransform("PROJECTMATCH_LOG_LEVEL"))
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger(LogConfig{Level: "warn", Format: format})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel), "debug must be disabled at warn")
		assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel), "error must be enabled at warn")
	}

	_, err := NewLogger(LogConfig{Level: "verbose"})
	assert.Error(t, err)
}
