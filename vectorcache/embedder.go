package vectorcache

import (
	"context"
	"fmt"
	"time"

	"github.com/botirk38/projectmatch/types"
)

// Embedder is a cache-through encoder. Only texts missing from the cache reach
// the underlying encoder; concurrent misses on the same text may both encode it.
type Embedder struct {
	encoder types.Encoder
	cache   Cache
	ttl     time.Duration
}

// NewEmbedder wraps encoder with cache. ttl 0 keeps the tier defaults.
func NewEmbedder(encoder types.Encoder, cache Cache, ttl time.Duration) *Embedder {
	return &Embedder{encoder: encoder, cache: cache, ttl: ttl}
}

// Encode returns the vector of text, computing it only on a cache miss.
func (e *Embedder) Encode(ctx context.Context, text string) (types.Vector, error) {
	key := Key(text)
	if vec, ok := e.cache.Get(ctx, key); ok {
		return vec, nil
	}

	vec, err := e.encoder.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to encode text: %w", err)
	}
	e.cache.Set(ctx, key, vec, e.ttl)
	return vec, nil
}

// EncodeBatch encodes texts in order, sending only the distinct misses to the encoder.
func (e *Embedder) EncodeBatch(ctx context.Context, texts []string) ([]types.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = Key(text)
	}
	found := e.cache.GetBatch(ctx, keys)

	var missTexts []string
	var missKeys []string
	seen := make(map[string]bool)
	for i, key := range keys {
		if _, ok := found[key]; ok || seen[key] {
			continue
		}
		seen[key] = true
		missTexts = append(missTexts, texts[i])
		missKeys = append(missKeys, key)
	}

	if len(missTexts) > 0 {
		vecs, err := e.encoder.EncodeBatch(ctx, missTexts)
		if err != nil {
			return nil, fmt.Errorf("failed to encode batch: %w", err)
		}
		if len(vecs) != len(missTexts) {
			return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(vecs), len(missTexts))
		}

		computed := make(map[string]types.Vector, len(vecs))
		for i, vec := range vecs {
			computed[missKeys[i]] = vec
			found[missKeys[i]] = vec
		}
		e.cache.SetBatch(ctx, computed, e.ttl)
	}

	out := make([]types.Vector, len(texts))
	for i, key := range keys {
		out[i] = found[key]
	}
	return out, nil
}

// Dimensions reports the length of the underlying encoder's vectors.
func (e *Embedder) Dimensions() int {
	return e.encoder.Dimensions()
}

// Close closes the underlying encoder.
func (e *Embedder) Close() {
	e.encoder.Close()
}
