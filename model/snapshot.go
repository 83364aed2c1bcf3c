// Package model holds the project×project similarity matrix used by profile
// aggregation.
//
// A Snapshot is immutable once built. Reloading a model means building or
// loading a new Snapshot and swapping it into a Store; readers holding the old
// snapshot keep a consistent view.
package model

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

const symmetryTolerance = 1e-6

// Snapshot is a dense n×n similarity matrix with its stable project-id ordering.
type Snapshot struct {
	ids     []string
	index   map[string]int
	matrix  *mat.Dense
	builtAt time.Time
}

// NewSnapshot validates that matrix is square, symmetric and sized to ids.
// A nil matrix with no ids yields an empty snapshot.
func NewSnapshot(ids []string, matrix *mat.Dense, builtAt time.Time) (*Snapshot, error) {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("duplicate project id %q at row %d", id, i)
		}
		index[id] = i
	}

	if matrix == nil {
		if len(ids) != 0 {
			return nil, fmt.Errorf("missing matrix for %d project ids", len(ids))
		}
		return &Snapshot{index: index, builtAt: builtAt}, nil
	}

	rows, cols := matrix.Dims()
	if rows != cols {
		return nil, fmt.Errorf("similarity matrix must be square, got %dx%d", rows, cols)
	}
	if rows != len(ids) {
		return nil, fmt.Errorf("similarity matrix has %d rows for %d project ids", rows, len(ids))
	}
	for i := 0; i < rows; i++ {
		for j := i + 1; j < cols; j++ {
			a, b := matrix.At(i, j), matrix.At(j, i)
			if math.IsNaN(a) || math.IsNaN(b) || math.Abs(a-b) > symmetryTolerance {
				return nil, fmt.Errorf("similarity matrix is not symmetric at (%d,%d)", i, j)
			}
		}
	}

	return &Snapshot{
		ids:     append([]string(nil), ids...),
		index:   index,
		matrix:  matrix,
		builtAt: builtAt,
	}, nil
}

// Len returns the number of projects.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns a copy of the project ordering.
func (s *Snapshot) IDs() []string {
	return append([]string(nil), s.ids...)
}

// ID returns the project id of row i.
func (s *Snapshot) ID(i int) string {
	return s.ids[i]
}

// Index returns the row of id.
func (s *Snapshot) Index(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Row returns row i. The slice aliases the matrix and must not be modified.
func (s *Snapshot) Row(i int) []float64 {
	return s.matrix.RawRowView(i)
}

// At returns the similarity of rows i and j.
func (s *Snapshot) At(i, j int) float64 {
	return s.matrix.At(i, j)
}

// BuiltAt reports when the matrix was computed.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}
