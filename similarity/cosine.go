package similarity

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// Cosine computes cosine similarity truncated to [0,1].
// Opposed and orthogonal vectors both score 0. Empty, zero-norm or
// length-mismatched input yields 0.
func Cosine(a, b []float32) float64 {
	return Clamp01(CosineRaw(a, b))
}

// CosineRaw computes cosine similarity in [-1,1] without clamping.
func CosineRaw(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	normA := math.Sqrt(float64(vek32.Dot(a, a)))
	normB := math.Sqrt(float64(vek32.Dot(b, b)))
	denom := normA * normB
	if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
		return 0
	}

	sim := float64(vek32.Dot(a, b)) / denom
	// float32 accumulation can overshoot by an ulp
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	if len(v) == 0 {
		return 0
	}
	return math.Sqrt(float64(vek32.Dot(v, v)))
}
