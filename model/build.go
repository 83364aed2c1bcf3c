package model

import (
	"fmt"
	"time"

	"github.com/botirk38/projectmatch/similarity"
	"github.com/botirk38/projectmatch/types"
	"gonum.org/v1/gonum/mat"
)

// Build computes the pairwise cosine similarity of vectors, clamped to [0,1],
// as a snapshot ordered like ids. Zero vectors are similar to nothing, not
// even themselves.
func Build(ids []string, vectors []types.Vector) (*Snapshot, error) {
	if len(ids) != len(vectors) {
		return nil, fmt.Errorf("got %d ids for %d vectors", len(ids), len(vectors))
	}
	n := len(ids)
	if n == 0 {
		return NewSnapshot(nil, nil, time.Now())
	}

	dims := len(vectors[0])
	if dims == 0 {
		return nil, fmt.Errorf("project %s: %w", ids[0], types.ErrMissingVector)
	}

	// Unit rows turn X·Xᵀ into the cosine matrix.
	data := make([]float64, n*dims)
	for i, vec := range vectors {
		if len(vec) != dims {
			return nil, fmt.Errorf("project %s has %d dimensions, want %d: %w",
				ids[i], len(vec), dims, types.ErrDimensionMismatch)
		}
		norm := similarity.Norm(vec)
		if norm == 0 {
			continue
		}
		row := data[i*dims : (i+1)*dims]
		for j, v := range vec {
			row[j] = float64(v) / norm
		}
	}
	x := mat.NewDense(n, dims, data)

	var gram mat.SymDense
	gram.SymOuterK(1, x)

	out := mat.NewDense(n, n, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		return similarity.Clamp01(v)
	}, &gram)

	return NewSnapshot(ids, out, time.Now())
}
