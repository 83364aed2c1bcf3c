// Package chunker splits profile text that exceeds an embedding model's input
// limit into overlapping token windows.
package chunker

import (
	"errors"
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

var (
	ErrInvalidMaxTokens    = errors.New("max tokens must be positive")
	ErrInvalidChunkSize    = errors.New("chunk size must be positive")
	ErrChunkSizeExceedsMax = errors.New("chunk size cannot exceed max tokens")
	ErrInvalidOverlap      = errors.New("overlap must be non-negative")
	ErrOverlapTooLarge     = errors.New("overlap must be less than chunk size")
	ErrTokenizerFailed     = errors.New("tokenization failed")
)

// Config controls when and how text is split.
type Config struct {
	// MaxTokens is the model input limit. Shorter text is never split.
	MaxTokens int
	// ChunkSize is the number of tokens per window.
	ChunkSize int
	// ChunkOverlap is the number of tokens shared by neighbouring windows.
	ChunkOverlap int
}

// DefaultConfig matches the input limit of OpenAI's text-embedding-3 models.
func DefaultConfig() Config {
	return Config{
		MaxTokens:    8191,
		ChunkSize:    512,
		ChunkOverlap: 50,
	}
}

// Validate checks the window arithmetic.
func (c Config) Validate() error {
	switch {
	case c.MaxTokens <= 0:
		return ErrInvalidMaxTokens
	case c.ChunkSize <= 0:
		return ErrInvalidChunkSize
	case c.ChunkSize > c.MaxTokens:
		return ErrChunkSizeExceedsMax
	case c.ChunkOverlap < 0:
		return ErrInvalidOverlap
	case c.ChunkOverlap >= c.ChunkSize:
		return ErrOverlapTooLarge
	}
	return nil
}

// Chunk is one window of the original text.
type Chunk struct {
	Text string
	// Tokens is the window length, used to weight the chunk when pooling.
	Tokens int
}

// Splitter splits text into chunks that each fit the model.
type Splitter interface {
	Split(text string) ([]Chunk, error)
}

// TokenSplitter counts tokens with tiktoken's cl100k_base encoding, the one
// used by OpenAI embedding models.
type TokenSplitter struct {
	config   Config
	encoding tokenizer.Codec
}

// NewTokenSplitter validates config and loads the encoding.
func NewTokenSplitter(config Config) (*TokenSplitter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunk config: %w", err)
	}

	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}

	return &TokenSplitter{config: config, encoding: enc}, nil
}

// CountTokens returns the number of tokens in text.
func (s *TokenSplitter) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	ids, _, err := s.encoding.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTokenizerFailed, err)
	}
	return len(ids), nil
}

// Split returns text as a single chunk when it fits MaxTokens, otherwise as
// ChunkSize windows advancing by ChunkSize-ChunkOverlap tokens. Empty text
// yields no chunks.
func (s *TokenSplitter) Split(text string) ([]Chunk, error) {
	if text == "" {
		return nil, nil
	}

	tokens, _, err := s.encoding.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenizerFailed, err)
	}
	if len(tokens) <= s.config.MaxTokens {
		return []Chunk{{Text: text, Tokens: len(tokens)}}, nil
	}

	stride := s.config.ChunkSize - s.config.ChunkOverlap
	var chunks []Chunk
	for start := 0; start < len(tokens); start += stride {
		end := min(start+s.config.ChunkSize, len(tokens))

		window, err := s.encoding.Decode(tokens[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to decode chunk %d: %w", len(chunks), err)
		}
		chunks = append(chunks, Chunk{Text: window, Tokens: end - start})

		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}
