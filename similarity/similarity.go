// Package similarity provides similarity measures for embedding vectors and categorical sets.
package similarity

import (
	"fmt"
	"strings"
)

// SimilarityFunc represents a function that computes similarity between two embedding vectors.
// It should return a float64 where higher values indicate greater similarity.
type SimilarityFunc func(a, b []float32) float64

// Metric names accepted by ByName.
const (
	MetricCosine    = "cosine"
	MetricDot       = "dot"
	MetricEuclidean = "euclidean"
	MetricManhattan = "manhattan"
	MetricPearson   = "pearson"
)

// ByName resolves a metric name to its SimilarityFunc. An empty name selects cosine.
func ByName(name string) (SimilarityFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", MetricCosine:
		return Cosine, nil
	case MetricDot:
		return DotProductSimilarity, nil
	case MetricEuclidean:
		return EuclideanSimilarity, nil
	case MetricManhattan:
		return ManhattanSimilarity, nil
	case MetricPearson:
		return PearsonCorrelationSimilarity, nil
	default:
		return nil, fmt.Errorf("unknown similarity metric %q", name)
	}
}

// Clamp01 limits v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v != v || v <= 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
