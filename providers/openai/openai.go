// Package openai encodes profile text with OpenAI's embeddings endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/botirk38/projectmatch/types"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	DefaultModel     = openai.EmbeddingModelTextEmbedding3Small
	DefaultBatchSize = 256
)

// Config provides configuration options for the OpenAI encoder
type Config struct {
	APIKey  string
	BaseURL string
	OrgID   string
	Model   string
	// Dimensions is sent as the "dimensions" request parameter so the
	// text-embedding-3 models return vectors of the configured length.
	Dimensions int
	// BatchSize caps the inputs of one request.
	BatchSize int
	// MaxRetries overrides the client's retry count when positive.
	MaxRetries int
}

// Encoder implements types.Encoder on OpenAI embeddings.
type Encoder struct {
	client     *openai.Client
	model      string
	dimensions int
	batchSize  int
}

// New creates an OpenAI encoder. The API key falls back to OPENAI_API_KEY.
func New(config Config) (*Encoder, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("OpenAI API key is required")
		}
	}

	model := config.Model
	if model == "" {
		model = DefaultModel
	}
	dimensions := config.Dimensions
	if dimensions <= 0 {
		dimensions = types.SemanticDimensions
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}
	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	client := openai.NewClient(opts...)
	return &Encoder{
		client:     &client,
		model:      model,
		dimensions: dimensions,
		batchSize:  batchSize,
	}, nil
}

// Encode embeds a single text.
func (e *Encoder) Encode(ctx context.Context, text string) (types.Vector, error) {
	vecs, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeBatch embeds texts in requests of at most BatchSize inputs.
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([]types.Vector, error) {
	out := make([]types.Vector, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *Encoder) embed(ctx context.Context, texts []string) ([]types.Vector, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: openai.Int(int64(e.dimensions)),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	// Results carry their input index and are not guaranteed to be ordered.
	vecs := make([]types.Vector, len(texts))
	for _, d := range resp.Data {
		i := int(d.Index)
		if i < 0 || i >= len(texts) {
			return nil, fmt.Errorf("openai returned embedding for unknown input %d", i)
		}
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("openai returned %d dimensions, want %d: %w",
				len(d.Embedding), e.dimensions, types.ErrDimensionMismatch)
		}
		vec := make(types.Vector, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		vecs[i] = vec
	}
	for i, vec := range vecs {
		if vec == nil {
			return nil, fmt.Errorf("openai returned no embedding for input %d", i)
		}
	}
	return vecs, nil
}

// Dimensions reports the configured vector length.
func (e *Encoder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the HTTP client needs no teardown.
func (e *Encoder) Close() {}
