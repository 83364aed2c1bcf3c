package backends

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/botirk38/projectmatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendFactory(t *testing.T) {
	factory := &BackendFactory{}
	mr := miniredis.RunT(t)

	tests := []struct {
		name        string
		backendType types.BackendType
		config      types.BackendConfig
	}{
		{"default", "", types.BackendConfig{Capacity: 4}},
		{"lru", types.BackendLRU, types.BackendConfig{Capacity: 4}},
		{"lfu", types.BackendLFU, types.BackendConfig{Capacity: 4}},
		{"fifo", types.BackendFIFO, types.BackendConfig{Capacity: 4}},
		{"redis", types.BackendRedis, types.BackendConfig{ConnectionString: mr.Addr()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := factory.NewBackend(tt.backendType, tt.config)
			require.NoError(t, err)
			defer backend.Close()

			ctx := context.Background()
			require.NoError(t, backend.Set(ctx, "key", types.Vector{0.5, 0.25}, 0))

			vec, found, err := backend.Get(ctx, "key")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, types.Vector{0.5, 0.25}, vec)
		})
	}
}

func TestBackendFactory_Unsupported(t *testing.T) {
	factory := &BackendFactory{}

	_, err := factory.NewBackend("memcached", types.BackendConfig{})
	assert.True(t, errors.Is(err, ErrUnsupportedBackend))
}

func TestBackendFactory_InvalidCapacity(t *testing.T) {
	factory := &BackendFactory{}

	_, err := factory.NewBackend(types.BackendLRU, types.BackendConfig{Capacity: 0})
	assert.Error(t, err)
}
