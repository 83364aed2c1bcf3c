package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/botirk38/projectmatch/metrics"
	"github.com/botirk38/projectmatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func unit(dims, hot int) types.Vector {
	vec := make(types.Vector, dims)
	vec[hot] = 1
	return vec
}

func newTestScorer(t testing.TB, cfg Config, logger *zap.Logger) *Scorer {
	t.Helper()
	scorer, err := NewScorer(cfg, logger)
	require.NoError(t, err)
	return scorer.WithMetrics(metrics.New(nil))
}

func TestRank_IdenticalProfileScoresOne(t *testing.T) {
	scorer := newTestScorer(t, Config{
		Weights:             types.SimilarityWeights{Semantic: 0.1, Category: 0.3, Tech: 0.6},
		TopN:                10,
		MinSimilarity:       0,
		PopularityThreshold: 100,
	}, nil)

	user := types.UserProfile{
		ID:           "u1",
		Categories:   []string{"web"},
		Technologies: []string{"go"},
		Vector:       unit(types.SemanticDimensions, 0),
	}
	project := types.Project{
		ID:           "p1",
		Categories:   []string{"web"},
		Technologies: []string{"go"},
		Vector:       unit(types.SemanticDimensions, 0),
	}

	rows, err := scorer.Rank(context.Background(), user, []types.Project{project})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1.0, rows[0].CombinedScore, 1e-9)
	assert.Equal(t, "u1", rows[0].UserID)
	assert.Equal(t, "p1", rows[0].ProjectID)
	assert.InDelta(t, 1.0, rows[0].SemanticSimilarity, 1e-9)
	assert.Equal(t, 1.0, rows[0].CategorySimilarity)
	assert.Equal(t, 1.0, rows[0].TechSimilarity)
	assert.Equal(t, 0.0, rows[0].PopularitySimilarity)
}

func TestRank_UnpopularProjectExcluded(t *testing.T) {
	scorer := newTestScorer(t, Config{
		Weights:             types.SimilarityWeights{Popularity: 0.5},
		TopN:                10,
		MinSimilarity:       0.01,
		PopularityThreshold: 100,
	}, nil)

	user := types.UserProfile{ID: "u1", Vector: unit(4, 0)}
	project := types.Project{ID: "p1", Popularity: 0, Vector: unit(4, 0)}

	assert.Equal(t, 0.0, scorer.Score(user, project).CombinedScore)

	rows, err := scorer.Rank(context.Background(), user, []types.Project{project})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRank_Boundaries(t *testing.T) {
	user := types.UserProfile{ID: "u1", Vector: unit(3, 0)}
	base := Config{
		Weights:             types.SimilarityWeights{Semantic: 1},
		TopN:                10,
		MinSimilarity:       0,
		PopularityThreshold: 100,
	}

	t.Run("EmptyCandidates", func(t *testing.T) {
		rows, err := newTestScorer(t, base, nil).Rank(context.Background(), user, nil)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("AllBelowThreshold", func(t *testing.T) {
		cfg := base
		cfg.MinSimilarity = 0.5
		candidates := []types.Project{
			{ID: "a", Vector: unit(3, 1)},
			{ID: "b", Vector: types.Vector{-1, 0, 0}},
		}
		rows, err := newTestScorer(t, cfg, nil).Rank(context.Background(), user, candidates)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("TopNLargerThanCandidates", func(t *testing.T) {
		cfg := base
		cfg.TopN = 50
		candidates := []types.Project{
			{ID: "a", Vector: unit(3, 0)},
			{ID: "b", Vector: types.Vector{1, 1, 0}},
		}
		rows, err := newTestScorer(t, cfg, nil).Rank(context.Background(), user, candidates)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "a", rows[0].ProjectID)
		assert.Equal(t, "b", rows[1].ProjectID)
	})

	t.Run("TopNCaps", func(t *testing.T) {
		cfg := base
		cfg.TopN = 2
		candidates := make([]types.Project, 5)
		for i := range candidates {
			candidates[i] = types.Project{ID: fmt.Sprintf("p%d", i), Vector: types.Vector{1, float32(i), 0}}
		}
		rows, err := newTestScorer(t, cfg, nil).Rank(context.Background(), user, candidates)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"p0", "p1"}, []string{rows[0].ProjectID, rows[1].ProjectID})
	})

	t.Run("TiesKeepInputOrder", func(t *testing.T) {
		candidates := []types.Project{
			{ID: "third", Vector: unit(3, 1)},
			{ID: "first", Vector: unit(3, 0)},
			{ID: "second", Vector: unit(3, 0)},
			{ID: "fourth", Vector: unit(3, 2)},
		}
		rows, err := newTestScorer(t, base, nil).Rank(context.Background(), user, candidates)
		require.NoError(t, err)

		var ids []string
		for _, row := range rows {
			ids = append(ids, row.ProjectID)
		}
		assert.Equal(t, []string{"first", "second", "third", "fourth"}, ids)
	})
}

func TestRank_NeverViolatesLimits(t *testing.T) {
	cfg := Config{
		Weights:             types.SimilarityWeights{Semantic: 0.5, Category: 0.2, Tech: 0.2, Popularity: 0.1},
		TopN:                3,
		MinSimilarity:       0.3,
		PopularityThreshold: 50,
	}
	scorer := newTestScorer(t, cfg, nil)

	user := types.UserProfile{
		ID:           "u1",
		Categories:   []string{"web", "data_ai"},
		Technologies: []string{"python", "go"},
		Vector:       types.Vector{0.2, 0.9, 0.1, 0.4},
	}
	candidates := make([]types.Project, 20)
	for i := range candidates {
		candidates[i] = types.Project{
			ID:           fmt.Sprintf("p%d", i),
			Categories:   []string{[]string{"web", "games", "data_ai"}[i%3]},
			Technologies: []string{[]string{"python", "rust", "go", "java"}[i%4]},
			Popularity:   i * 7,
			Vector:       types.Vector{float32(i%5) - 2, float32(i % 3), 0.5, float32(i%7) / 7},
		}
	}

	rows, err := scorer.Rank(context.Background(), user, candidates)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(rows), cfg.TopN)
	for i, row := range rows {
		assert.GreaterOrEqual(t, row.CombinedScore, cfg.MinSimilarity)
		if i > 0 {
			assert.GreaterOrEqual(t, rows[i-1].CombinedScore, row.CombinedScore)
		}
	}

	again, err := scorer.Rank(context.Background(), user, candidates)
	require.NoError(t, err)
	assert.Equal(t, rows, again, "ranking must be deterministic")
}

func TestScore_MonotonicInEachComponent(t *testing.T) {
	weights := types.SimilarityWeights{Semantic: 0.4, Category: 0.3, Tech: 0.2, Popularity: 0.1}
	scorer := newTestScorer(t, Config{Weights: weights, TopN: 10, PopularityThreshold: 10}, nil)

	user := types.UserProfile{
		ID:           "u1",
		Categories:   []string{"web", "games"},
		Technologies: []string{"go", "rust"},
		Vector:       types.Vector{1, 0, 0},
	}
	base := types.Project{
		ID:           "p",
		Categories:   []string{"web", "mobile"},
		Technologies: []string{"go", "java"},
		Popularity:   3,
		Vector:       types.Vector{1, 1, 0},
	}
	baseline := scorer.Score(user, base).CombinedScore

	better := []struct {
		name   string
		mutate func(p *types.Project)
	}{
		{"semantic", func(p *types.Project) { p.Vector = types.Vector{1, 0.1, 0} }},
		{"category", func(p *types.Project) { p.Categories = []string{"web", "games"} }},
		{"tech", func(p *types.Project) { p.Technologies = []string{"go", "rust"} }},
		{"popularity", func(p *types.Project) { p.Popularity = 8 }},
	}
	for _, tt := range better {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			assert.Greater(t, scorer.Score(user, p).CombinedScore, baseline)
		})
	}

	t.Run("PopularitySaturates", func(t *testing.T) {
		p := base
		p.Popularity = 10
		atThreshold := scorer.Score(user, p).PopularitySimilarity
		p.Popularity = 1000
		assert.Equal(t, atThreshold, scorer.Score(user, p).PopularitySimilarity)
		assert.Equal(t, 1.0, atThreshold)
	})

	t.Run("NegativePopularityCountsAsZero", func(t *testing.T) {
		p := base
		p.Popularity = -5
		assert.Equal(t, 0.0, scorer.Score(user, p).PopularitySimilarity)
	})
}

func TestRank_SkipsUnusableCandidates(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	scorer := newTestScorer(t, Config{
		Weights:             types.SimilarityWeights{Semantic: 1},
		TopN:                10,
		PopularityThreshold: 1,
	}, zap.New(core))

	user := types.UserProfile{ID: "u1", Vector: unit(3, 0)}
	candidates := []types.Project{
		{ID: "no-vector"},
		{ID: "short", Vector: types.Vector{1, 0}},
		{ID: "ok", Vector: unit(3, 0)},
	}

	rows, err := scorer.Rank(context.Background(), user, candidates)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ok", rows[0].ProjectID)

	skipped := logs.FilterMessage("skipping candidate project").All()
	require.Len(t, skipped, 2)
	assert.Equal(t, "no-vector", skipped[0].ContextMap()["project_id"])
	assert.Equal(t, "short", skipped[1].ContextMap()["project_id"])
}

func TestRank_UserWithoutVector(t *testing.T) {
	scorer := newTestScorer(t, DefaultConfig(), nil)

	_, err := scorer.Rank(context.Background(), types.UserProfile{ID: "u1"}, []types.Project{{ID: "p"}})
	assert.True(t, errors.Is(err, types.ErrMissingVector))
}

func TestRank_Cancelled(t *testing.T) {
	scorer := newTestScorer(t, DefaultConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scorer.Rank(ctx, types.UserProfile{ID: "u1", Vector: unit(2, 0)}, []types.Project{{ID: "p", Vector: unit(2, 0)}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"negative semantic", func(c *Config) { c.Weights.Semantic = -0.1 }, "scoring.semantic_weight"},
		{"nan category", func(c *Config) { c.Weights.Category = math.NaN() }, "scoring.category_weight"},
		{"infinite tech", func(c *Config) { c.Weights.Tech = math.Inf(1) }, "scoring.tech_weight"},
		{"negative popularity", func(c *Config) { c.Weights.Popularity = -1 }, "scoring.popularity_weight"},
		{"zero top_n", func(c *Config) { c.TopN = 0 }, "scoring.top_n"},
		{"nan min_similarity", func(c *Config) { c.MinSimilarity = math.NaN() }, "scoring.min_similarity"},
		{"zero threshold", func(c *Config) { c.PopularityThreshold = 0 }, "scoring.popularity_threshold"},
		{"unknown metric", func(c *Config) { c.Metric = "hamming" }, "scoring.metric"},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var cfgErr *types.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)

			_, err = NewScorer(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestRank_AlternativeMetricIsClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metric = "dot"
	cfg.Weights = types.SimilarityWeights{Semantic: 1}
	cfg.MinSimilarity = 0
	scorer := newTestScorer(t, cfg, nil)

	user := types.UserProfile{ID: "u1", Vector: types.Vector{3, 4}}
	row := scorer.Score(user, types.Project{ID: "p", Vector: types.Vector{3, 4}})
	assert.Equal(t, 1.0, row.SemanticSimilarity)

	row = scorer.Score(user, types.Project{ID: "p", Vector: types.Vector{-3, -4}})
	assert.Equal(t, 0.0, row.SemanticSimilarity)
}

func BenchmarkRank(b *testing.B) {
	scorer := newTestScorer(b, DefaultConfig(), nil)

	user := types.UserProfile{
		ID:           "u1",
		Categories:   []string{"web", "data_ai"},
		Technologies: []string{"go", "python"},
		Vector:       make(types.Vector, types.SemanticDimensions),
	}
	for i := range user.Vector {
		user.Vector[i] = float32(i%17) / 17
	}

	candidates := make([]types.Project, 1000)
	for i := range candidates {
		vec := make(types.Vector, types.SemanticDimensions)
		for j := range vec {
			vec[j] = float32((i+j)%23) / 23
		}
		candidates[i] = types.Project{
			ID:           fmt.Sprintf("p%d", i),
			Categories:   []string{"web"},
			Technologies: []string{"go"},
			Popularity:   i,
			Vector:       vec,
		}
	}

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := scorer.Rank(ctx, user, candidates); err != nil {
			b.Fatal(err)
		}
	}
}
