package types

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingVector indicates a user or project has no semantic vector
	ErrMissingVector = errors.New("missing semantic vector")

	// ErrDimensionMismatch indicates two vectors of one run differ in length
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyProfile indicates a user has not interacted with any project
	ErrEmptyProfile = errors.New("empty interest profile")

	// ErrModelUnavailable indicates no similarity matrix is loaded
	ErrModelUnavailable = errors.New("similarity model unavailable")

	// ErrCacheBackend wraps failures of a remote cache tier
	ErrCacheBackend = errors.New("cache backend failure")

	// ErrInvalidTopN indicates a caller-supplied top_n outside the allowed range
	ErrInvalidTopN = errors.New("top_n out of range")
)

// ConfigurationError reports a malformed configuration value. It is fatal at startup.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// NewConfigurationError creates a ConfigurationError for field.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
