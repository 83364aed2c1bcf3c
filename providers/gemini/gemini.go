// Package gemini encodes profile text with the Gemini embeddings API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/botirk38/projectmatch/types"
	"google.golang.org/genai"
)

const (
	DefaultModel     = "gemini-embedding-001"
	DefaultBatchSize = 100
	// taskType tunes the embeddings for similarity comparison.
	taskType = "SEMANTIC_SIMILARITY"
)

// Config provides configuration options for the Gemini encoder
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int
}

// Encoder implements types.Encoder on genai's EmbedContent.
type Encoder struct {
	client     *genai.Client
	model      string
	dimensions int
	batchSize  int
}

// New creates a Gemini encoder. The API key falls back to GEMINI_API_KEY.
func New(ctx context.Context, config Config) (*Encoder, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, errors.New("Gemini API key is required")
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

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: config.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Encoder{
		client:     client,
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
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: genai.Ptr(int32(e.dimensions)),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	vecs := make([]types.Vector, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) != e.dimensions {
			got := 0
			if emb != nil {
				got = len(emb.Values)
			}
			return nil, fmt.Errorf("gemini returned %d dimensions, want %d: %w",
				got, e.dimensions, types.ErrDimensionMismatch)
		}
		vecs[i] = emb.Values
	}
	return vecs, nil
}

// Dimensions reports the configured vector length.
func (e *Encoder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op; the genai client holds no connections of its own.
func (e *Encoder) Close() {}
