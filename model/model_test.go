package model

import (
	"bytes"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/botirk38/projectmatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func exampleSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	m := mat.NewDense(3, 3, []float64{
		1, 0.5, 0.2,
		0.5, 1, 0.3,
		0.2, 0.3, 1,
	})
	snap, err := NewSnapshot([]string{"a", "b", "c"}, m, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return snap
}

func TestNewSnapshot(t *testing.T) {
	snap := exampleSnapshot(t)
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, []string{"a", "b", "c"}, snap.IDs())

	i, ok := snap.Index("c")
	require.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, "b", snap.ID(1))
	assert.Equal(t, []float64{0.5, 1, 0.3}, snap.Row(1))

	_, ok = snap.Index("missing")
	assert.False(t, ok)

	empty, err := NewSnapshot(nil, nil, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	var nilSnap *Snapshot
	assert.Zero(t, nilSnap.Len())
}

func TestNewSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		ids    []string
		matrix *mat.Dense
	}{
		{"not square", []string{"a", "b"}, mat.NewDense(2, 3, nil)},
		{"wrong size", []string{"a"}, mat.NewDense(2, 2, nil)},
		{"asymmetric", []string{"a", "b"}, mat.NewDense(2, 2, []float64{1, 0.4, 0.6, 1})},
		{"duplicate ids", []string{"a", "a"}, mat.NewDense(2, 2, []float64{1, 0, 0, 1})},
		{"ids without matrix", []string{"a"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSnapshot(tt.ids, tt.matrix, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestBuild(t *testing.T) {
	ids := []string{"p1", "p2", "p3", "p4"}
	vectors := []types.Vector{
		{1, 0, 0},
		{2, 0, 0},
		{0, 1, 0},
		{-1, 0, 0},
	}

	snap, err := Build(ids, vectors)
	require.NoError(t, err)
	require.Equal(t, 4, snap.Len())

	assert.InDelta(t, 1.0, snap.At(0, 0), 1e-9)
	assert.InDelta(t, 1.0, snap.At(0, 1), 1e-9, "scale must not matter")
	assert.InDelta(t, 0.0, snap.At(0, 2), 1e-9)
	assert.Equal(t, 0.0, snap.At(0, 3), "opposed vectors clamp to zero")

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.Equal(t, snap.At(i, j), snap.At(j, i))
			assert.GreaterOrEqual(t, snap.At(i, j), 0.0)
			assert.LessOrEqual(t, snap.At(i, j), 1.0)
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build([]string{"a"}, nil)
	assert.Error(t, err)

	_, err = Build([]string{"a", "b"}, []types.Vector{{1, 0}, {1}})
	assert.True(t, errors.Is(err, types.ErrDimensionMismatch))

	_, err = Build([]string{"a"}, []types.Vector{{}})
	assert.True(t, errors.Is(err, types.ErrMissingVector))

	empty, err := Build(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())
}

func TestBuild_ZeroVector(t *testing.T) {
	snap, err := Build([]string{"a", "zero"}, []types.Vector{{1, 1}, {0, 0}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.At(1, 1))
	assert.Equal(t, 0.0, snap.At(0, 1))
}

func TestSaveLoad(t *testing.T) {
	snap := exampleSnapshot(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, snap))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, snap.IDs(), loaded.IDs())
	assert.True(t, snap.BuiltAt().Equal(loaded.BuiltAt()))
	for i := 0; i < 3; i++ {
		assert.Equal(t, snap.Row(i), loaded.Row(i))
	}
}

func TestSaveLoad_Empty(t *testing.T) {
	empty, err := NewSnapshot(nil, nil, time.Now())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, empty))
	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Zero(t, loaded.Len())
}

func TestLoad_Corrupt(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("not a matrix")))
	assert.Error(t, err)
}

func TestSaveFileLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "similarity.gob.gz")
	snap := exampleSnapshot(t)

	require.NoError(t, SaveFile(path, snap))

	store := NewStore(nil)
	assert.Nil(t, store.Snapshot())

	loaded, err := store.LoadFile(path)
	require.NoError(t, err)
	assert.Same(t, loaded, store.Snapshot())
	assert.Equal(t, snap.IDs(), loaded.IDs())

	_, err = store.LoadFile(filepath.Join(t.TempDir(), "missing.gob.gz"))
	assert.Error(t, err)
	assert.Same(t, loaded, store.Snapshot(), "failed reload keeps the current snapshot")
}

func TestStore_NilReceiver(t *testing.T) {
	var store *Store
	assert.Nil(t, store.Snapshot())
	assert.Zero(t, store.Snapshot().Len())
}

func TestStore_ConcurrentSwap(t *testing.T) {
	first := exampleSnapshot(t)
	second := exampleSnapshot(t)
	store := NewStore(first)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			snap := store.Snapshot()
			assert.Equal(t, 3, snap.Len())
		}()
		go func() {
			defer wg.Done()
			store.Swap(second)
		}()
	}
	wg.Wait()

	assert.Same(t, second, store.Snapshot())
}
