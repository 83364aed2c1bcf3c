package providers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/botirk38/projectmatch/chunker"
	"github.com/botirk38/projectmatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordSplitter splits on "|" and weighs each part by its length.
type wordSplitter struct{}

func (wordSplitter) Split(text string) ([]chunker.Chunk, error) {
	if text == "" {
		return nil, nil
	}
	if strings.Contains(text, "!") {
		return nil, errors.New("unsplittable")
	}
	var chunks []chunker.Chunk
	for _, part := range strings.Split(text, "|") {
		chunks = append(chunks, chunker.Chunk{Text: part, Tokens: len(part)})
	}
	return chunks, nil
}

// lengthEncoder maps a text to [len(text), 1].
type lengthEncoder struct {
	batches [][]string
	closed  bool
}

func (e *lengthEncoder) Encode(ctx context.Context, text string) (types.Vector, error) {
	return types.Vector{float32(len(text)), 1}, nil
}

func (e *lengthEncoder) EncodeBatch(ctx context.Context, texts []string) ([]types.Vector, error) {
	e.batches = append(e.batches, texts)
	out := make([]types.Vector, len(texts))
	for i, text := range texts {
		out[i] = types.Vector{float32(len(text)), 1}
	}
	return out, nil
}

func (e *lengthEncoder) Dimensions() int { return 2 }
func (e *lengthEncoder) Close()          { e.closed = true }

func TestChunkedEncoder(t *testing.T) {
	inner := &lengthEncoder{}
	enc := NewChunkedEncoder(inner, wordSplitter{})
	ctx := context.Background()

	vecs, err := enc.EncodeBatch(ctx, []string{"abcd", "a|abc", ""})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	assert.Equal(t, types.Vector{4, 1}, vecs[0])
	// weighted mean of [1,1] (weight 1) and [3,1] (weight 3)
	assert.InDelta(t, 2.5, vecs[1][0], 1e-6)
	assert.InDelta(t, 1.0, vecs[1][1], 1e-6)
	assert.Equal(t, types.Vector{0, 1}, vecs[2])

	require.Len(t, inner.batches, 1, "all chunks go out in one batch")
	assert.Equal(t, []string{"abcd", "a", "abc", ""}, inner.batches[0])

	single, err := enc.Encode(ctx, "ab|ab")
	require.NoError(t, err)
	assert.Equal(t, types.Vector{2, 1}, single)

	assert.Equal(t, 2, enc.Dimensions())
	enc.Close()
	assert.True(t, inner.closed)
}

func TestChunkedEncoder_SplitError(t *testing.T) {
	enc := NewChunkedEncoder(&lengthEncoder{}, wordSplitter{})

	_, err := enc.Encode(context.Background(), "bad!")
	assert.ErrorContains(t, err, "unsplittable")
}

func TestChunkedEncoder_WithTokenSplitter(t *testing.T) {
	splitter, err := chunker.NewTokenSplitter(chunker.Config{MaxTokens: 8, ChunkSize: 4, ChunkOverlap: 1})
	require.NoError(t, err)
	inner := &lengthEncoder{}
	enc := NewChunkedEncoder(inner, splitter)

	vec, err := enc.Encode(context.Background(), strings.Repeat("open source projects need contributors ", 4))
	require.NoError(t, err)
	assert.Len(t, vec, 2)
	require.Len(t, inner.batches, 1)
	assert.Greater(t, len(inner.batches[0]), 1)
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "cohere"})

	var cfgErr *types.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "encoder.provider", cfgErr.Field)
}

func TestNew_Providers(t *testing.T) {
	enc, err := New(context.Background(), Config{Provider: types.ProviderOpenAI, APIKey: "k", Dimensions: 64})
	require.NoError(t, err)
	assert.Equal(t, 64, enc.Dimensions())

	enc, err = New(context.Background(), Config{Provider: types.ProviderGemini, APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, types.SemanticDimensions, enc.Dimensions())
}
