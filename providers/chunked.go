package providers

import (
	"context"
	"fmt"

	"github.com/botirk38/projectmatch/chunker"
	"github.com/botirk38/projectmatch/types"
)

// ChunkedEncoder splits text longer than the model limit and returns the
// token-weighted mean of the chunk vectors. Text that fits is passed through.
type ChunkedEncoder struct {
	inner    types.Encoder
	splitter chunker.Splitter
}

// NewChunkedEncoder wraps inner with splitter.
func NewChunkedEncoder(inner types.Encoder, splitter chunker.Splitter) *ChunkedEncoder {
	return &ChunkedEncoder{inner: inner, splitter: splitter}
}

// Encode embeds text, pooling over chunks when it has to be split.
func (c *ChunkedEncoder) Encode(ctx context.Context, text string) (types.Vector, error) {
	vecs, err := c.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeBatch splits every text, embeds all chunks in one inner batch and
// pools them back per text.
func (c *ChunkedEncoder) EncodeBatch(ctx context.Context, texts []string) ([]types.Vector, error) {
	var flat []string
	var weights []int
	spans := make([][2]int, len(texts))

	for i, text := range texts {
		chunks, err := c.splitter.Split(text)
		if err != nil {
			return nil, fmt.Errorf("failed to split text %d: %w", i, err)
		}
		if len(chunks) == 0 {
			chunks = []chunker.Chunk{{Text: text, Tokens: 1}}
		}

		spans[i][0] = len(flat)
		for _, chunk := range chunks {
			flat = append(flat, chunk.Text)
			weights = append(weights, max(chunk.Tokens, 1))
		}
		spans[i][1] = len(flat)
	}

	if len(flat) == 0 {
		return nil, nil
	}
	vecs, err := c.inner.EncodeBatch(ctx, flat)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(flat) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d chunks", len(vecs), len(flat))
	}

	out := make([]types.Vector, len(texts))
	for i, span := range spans {
		pooled, err := meanPool(vecs[span[0]:span[1]], weights[span[0]:span[1]])
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = pooled
	}
	return out, nil
}

func meanPool(vecs []types.Vector, weights []int) (types.Vector, error) {
	if len(vecs) == 1 {
		return vecs[0], nil
	}

	dims := len(vecs[0])
	sum := make([]float64, dims)
	total := 0.0
	for k, vec := range vecs {
		if len(vec) != dims {
			return nil, fmt.Errorf("chunk %d has %d dimensions, want %d: %w",
				k, len(vec), dims, types.ErrDimensionMismatch)
		}
		w := float64(weights[k])
		for j, v := range vec {
			sum[j] += float64(v) * w
		}
		total += w
	}

	pooled := make(types.Vector, dims)
	for j, v := range sum {
		pooled[j] = float32(v / total)
	}
	return pooled, nil
}

// Dimensions reports the inner encoder's vector length.
func (c *ChunkedEncoder) Dimensions() int {
	return c.inner.Dimensions()
}

// Close closes the inner encoder.
func (c *ChunkedEncoder) Close() {
	c.inner.Close()
}
