package similarity

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// widen copies v into float64 for the gonum routines.
func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func sameShape(a, b []float32) bool {
	return len(a) == len(b) && len(a) > 0
}

// EuclideanSimilarity maps the L2 distance d to 1/(1+d): 1 for identical
// vectors, towards 0 as they move apart.
func EuclideanSimilarity(a, b []float32) float64 {
	if !sameShape(a, b) {
		return 0
	}
	return 1 / (1 + floats.Distance(widen(a), widen(b), 2))
}

// ManhattanSimilarity is EuclideanSimilarity over the L1 distance.
func ManhattanSimilarity(a, b []float32) float64 {
	if !sameShape(a, b) {
		return 0
	}
	return 1 / (1 + floats.Distance(widen(a), widen(b), 1))
}

// PearsonCorrelationSimilarity returns the correlation coefficient in [-1,1].
// Constant vectors have no defined correlation and score 0.
func PearsonCorrelationSimilarity(a, b []float32) float64 {
	if !sameShape(a, b) {
		return 0
	}
	r := stat.Correlation(widen(a), widen(b), nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}
