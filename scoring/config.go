package scoring

import (
	"math"

	"github.com/botirk38/projectmatch/similarity"
	"github.com/botirk38/projectmatch/types"
)

// Config holds the read-only parameters of one scoring run.
type Config struct {
	Weights             types.SimilarityWeights
	TopN                int
	MinSimilarity       float64
	PopularityThreshold float64
	// Metric names the semantic similarity measure; empty selects cosine.
	Metric string
}

// DefaultConfig returns the weights used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Weights: types.SimilarityWeights{
			Semantic:   0.5,
			Category:   0.2,
			Tech:       0.2,
			Popularity: 0.1,
		},
		TopN:                10,
		MinSimilarity:       0.1,
		PopularityThreshold: 100,
		Metric:              similarity.MetricCosine,
	}
}

// Validate reports the first malformed value as a *types.ConfigurationError.
func (c Config) Validate() error {
	weights := []struct {
		field string
		value float64
	}{
		{"scoring.semantic_weight", c.Weights.Semantic},
		{"scoring.category_weight", c.Weights.Category},
		{"scoring.tech_weight", c.Weights.Tech},
		{"scoring.popularity_weight", c.Weights.Popularity},
	}
	for _, w := range weights {
		if !finite(w.value) {
			return types.NewConfigurationError(w.field, "must be a finite number, got %v", w.value)
		}
		if w.value < 0 {
			return types.NewConfigurationError(w.field, "must not be negative, got %v", w.value)
		}
	}

	if c.TopN <= 0 {
		return types.NewConfigurationError("scoring.top_n", "must be positive, got %d", c.TopN)
	}
	if !finite(c.MinSimilarity) {
		return types.NewConfigurationError("scoring.min_similarity", "must be a finite number, got %v", c.MinSimilarity)
	}
	if !finite(c.PopularityThreshold) || c.PopularityThreshold <= 0 {
		return types.NewConfigurationError("scoring.popularity_threshold", "must be positive, got %v", c.PopularityThreshold)
	}
	if _, err := similarity.ByName(c.Metric); err != nil {
		return types.NewConfigurationError("scoring.metric", "%v", err)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
