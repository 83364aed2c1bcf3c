// Package providers builds text encoders from configuration.
package providers

import (
	"context"

	"github.com/botirk38/projectmatch/chunker"
	"github.com/botirk38/projectmatch/providers/gemini"
	"github.com/botirk38/projectmatch/providers/openai"
	"github.com/botirk38/projectmatch/types"
)

// Config selects and configures one embedding provider.
type Config struct {
	Provider   types.ProviderType
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int
}

// New creates the encoder named by config.Provider.
func New(ctx context.Context, config Config) (types.Encoder, error) {
	switch config.Provider {
	case types.ProviderOpenAI, "":
		return openai.New(openai.Config{
			APIKey:     config.APIKey,
			BaseURL:    config.BaseURL,
			Model:      config.Model,
			Dimensions: config.Dimensions,
			BatchSize:  config.BatchSize,
		})
	case types.ProviderGemini:
		return gemini.New(ctx, gemini.Config{
			APIKey:     config.APIKey,
			BaseURL:    config.BaseURL,
			Model:      config.Model,
			Dimensions: config.Dimensions,
			BatchSize:  config.BatchSize,
		})
	default:
		return nil, types.NewConfigurationError("encoder.provider", "unsupported provider %q", config.Provider)
	}
}

// NewChunked wraps the configured encoder so over-long text is split and pooled.
func NewChunked(ctx context.Context, config Config, splitter chunker.Splitter) (types.Encoder, error) {
	inner, err := New(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewChunkedEncoder(inner, splitter), nil
}
