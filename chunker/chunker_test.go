package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{"default", DefaultConfig(), nil},
		{"zero max tokens", Config{MaxTokens: 0, ChunkSize: 10, ChunkOverlap: 1}, ErrInvalidMaxTokens},
		{"zero chunk size", Config{MaxTokens: 100, ChunkSize: 0}, ErrInvalidChunkSize},
		{"chunk exceeds max", Config{MaxTokens: 100, ChunkSize: 200, ChunkOverlap: 1}, ErrChunkSizeExceedsMax},
		{"negative overlap", Config{MaxTokens: 100, ChunkSize: 10, ChunkOverlap: -1}, ErrInvalidOverlap},
		{"overlap equals size", Config{MaxTokens: 100, ChunkSize: 10, ChunkOverlap: 10}, ErrOverlapTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewTokenSplitter_InvalidConfig(t *testing.T) {
	_, err := NewTokenSplitter(Config{})
	assert.ErrorIs(t, err, ErrInvalidMaxTokens)
}

func TestTokenSplitter_ShortText(t *testing.T) {
	s, err := NewTokenSplitter(DefaultConfig())
	require.NoError(t, err)

	chunks, err := s.Split("A Go library for vector search.")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A Go library for vector search.", chunks[0].Text)
	assert.Positive(t, chunks[0].Tokens)

	chunks, err = s.Split("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestTokenSplitter_LongText(t *testing.T) {
	config := Config{MaxTokens: 40, ChunkSize: 20, ChunkOverlap: 5}
	s, err := NewTokenSplitter(config)
	require.NoError(t, err)

	text := strings.Repeat("contributors build open source projects together. ", 20)
	total, err := s.CountTokens(text)
	require.NoError(t, err)
	require.Greater(t, total, config.MaxTokens)

	chunks, err := s.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	covered := 0
	for i, c := range chunks {
		assert.NotEmpty(t, c.Text)
		assert.LessOrEqual(t, c.Tokens, config.ChunkSize)
		if i < len(chunks)-1 {
			assert.Equal(t, config.ChunkSize, c.Tokens)
			covered += config.ChunkSize - config.ChunkOverlap
		} else {
			covered += c.Tokens
		}
	}
	assert.Equal(t, total, covered, "windows must cover every token exactly once past the overlap")
}

func TestTokenSplitter_CountTokens(t *testing.T) {
	s, err := NewTokenSplitter(DefaultConfig())
	require.NoError(t, err)

	n, err := s.CountTokens("")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.CountTokens("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
