package backends

import (
	"errors"

	"github.com/botirk38/projectmatch/backends/inmemory"
	"github.com/botirk38/projectmatch/backends/remote"
	"github.com/botirk38/projectmatch/types"
)

var ErrUnsupportedBackend = errors.New("unsupported backend type")

// BackendFactory creates cache backends based on type and configuration
type BackendFactory struct{}

// NewBackend creates a new cache backend of the specified type
func (f *BackendFactory) NewBackend(backendType types.BackendType, config types.BackendConfig) (types.VectorBackend, error) {
	switch backendType {
	case types.BackendLRU, "":
		return NewLRUBackend(config)
	case types.BackendFIFO:
		return NewFIFOBackend(config)
	case types.BackendLFU:
		return NewLFUBackend(config)
	case types.BackendRedis:
		return NewRedisBackend(config)
	default:
		return nil, ErrUnsupportedBackend
	}
}

// NewLRUBackend creates a new LRU backend
func NewLRUBackend(config types.BackendConfig) (types.VectorBackend, error) {
	return inmemory.NewLRUBackend(config)
}

// NewFIFOBackend creates a new FIFO backend
func NewFIFOBackend(config types.BackendConfig) (types.VectorBackend, error) {
	return inmemory.NewFIFOBackend(config)
}

// NewLFUBackend creates a new LFU backend
func NewLFUBackend(config types.BackendConfig) (types.VectorBackend, error) {
	return inmemory.NewLFUBackend(config)
}

// NewRedisBackend creates a new Redis backend
func NewRedisBackend(config types.BackendConfig) (types.VectorBackend, error) {
	return remote.NewRedisBackend(config)
}
