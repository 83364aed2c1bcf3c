package types

import (
	"context"
	"time"

	"github.com/botirk38/projectmatch/metrics"
)

// SemanticDimensions is the length of the vectors produced by the default encoder.
const SemanticDimensions = 384

// Vector is a dense embedding or feature vector.
type Vector = []float32

// Project is a candidate project with its precomputed representation.
type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	Popularity   int      `json:"popularity"`
	Vector       Vector   `json:"vector,omitempty"`
}

// UserProfile holds the attributes of a user that take part in scoring.
type UserProfile struct {
	ID           string   `json:"id"`
	Bio          string   `json:"bio,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	Vector       Vector   `json:"vector,omitempty"`
}

// SimilarityWeights are the multipliers of the combined-score formula.
// They need not sum to 1.
type SimilarityWeights struct {
	Semantic   float64 `json:"semantic"`
	Category   float64 `json:"category"`
	Tech       float64 `json:"tech"`
	Popularity float64 `json:"popularity"`
}

// UserProjectSimilarity is one materialized recommendation row.
type UserProjectSimilarity struct {
	UserID               string  `json:"user_id" db:"user_id"`
	ProjectID            string  `json:"project_id" db:"project_id"`
	CombinedScore        float64 `json:"combined_score" db:"combined_score"`
	SemanticSimilarity   float64 `json:"semantic_similarity" db:"semantic_similarity"`
	CategorySimilarity   float64 `json:"category_similarity" db:"category_similarity"`
	TechSimilarity       float64 `json:"tech_similarity" db:"tech_similarity"`
	PopularitySimilarity float64 `json:"popularity_similarity" db:"popularity_similarity"`
}

// VectorBackend defines the interface for one tier of the vector cache.
// This allows for pluggable storage systems including in-memory and Redis.
type VectorBackend interface {
	// Get retrieves a vector by key
	Get(ctx context.Context, key string) (Vector, bool, error)

	// Set stores a vector; ttl <= 0 uses the backend default
	Set(ctx context.Context, key string, vec Vector, ttl time.Duration) error

	// GetBatch retrieves every key that is present
	GetBatch(ctx context.Context, keys []string) (map[string]Vector, error)

	// SetBatch stores several vectors with the same ttl
	SetBatch(ctx context.Context, entries map[string]Vector, ttl time.Duration) error

	// Delete removes a vector by key
	Delete(ctx context.Context, key string) error

	// Flush clears all entries
	Flush(ctx context.Context) error

	// Len returns the number of live entries
	Len(ctx context.Context) (int, error)

	// Close closes the backend and releases resources
	Close() error
}

// BackendConfig provides configuration options for backends
type BackendConfig struct {
	// For in-memory caches
	Capacity int
	TTL      time.Duration

	// For Redis
	ConnectionString string
	Username         string
	Password         string
	Database         int
	Prefix           string
	DialTimeout      time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration

	// Now overrides the clock, used by tests
	Now func() time.Time

	// Metrics receives backend gauges; nil uses the default registry
	Metrics *metrics.Metrics
}

// BackendType represents the type of cache backend
type BackendType string

const (
	BackendLRU   BackendType = "lru"
	BackendFIFO  BackendType = "fifo"
	BackendLFU   BackendType = "lfu"
	BackendRedis BackendType = "redis"
)

// Encoder defines the text-to-vector capability all embedding providers satisfy.
type Encoder interface {
	// Encode turns a piece of text into its vector.
	Encode(ctx context.Context, text string) (Vector, error)
	// EncodeBatch encodes several texts, preserving order.
	EncodeBatch(ctx context.Context, texts []string) ([]Vector, error)
	// Dimensions reports the length of produced vectors.
	Dimensions() int
	// Close frees any resources held by the provider.
	Close()
}

// ProviderType represents the type of embedding provider
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
)

// ResultStore persists the ranked rows of each user.
type ResultStore interface {
	// ReplaceForUser atomically replaces every row of userID with rows
	ReplaceForUser(ctx context.Context, userID string, rows []UserProjectSimilarity) error

	// ListForUser returns the rows of userID in rank order
	ListForUser(ctx context.Context, userID string) ([]UserProjectSimilarity, error)

	// Close releases the underlying connection
	Close() error
}
