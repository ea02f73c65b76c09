package ai

import (
	"github.com/pkg/errors"

	"github.com/booksync/booksync/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig
	Enabled   bool
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
	MaxRetries int
	Timeout    int     // request timeout in seconds
	RateLimit  float64 // provider requests per second, 0 disables throttling
}

// LLMConfig represents chat completion configuration for the synthesizer.
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 500
	Temperature float32 // default: 0
	Timeout     int     // request timeout in seconds
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.Embedding = EmbeddingConfig{
		Model:      p.EmbeddingModel,
		APIKey:     p.AIAPIKey,
		BaseURL:    p.AIBaseURL,
		Dimensions: p.EmbeddingDimensions,
		MaxRetries: p.AIMaxRetries,
		Timeout:    p.AITimeout,
		RateLimit:  p.EmbeddingRateLimit,
	}

	cfg.LLM = LLMConfig{
		Model:     p.AIModel,
		APIKey:    p.AIAPIKey,
		BaseURL:   p.AIBaseURL,
		MaxTokens: 500,
		Timeout:   p.AITimeout,
	}

	return cfg
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Embedding.APIKey == "" {
		return errors.New("embedding API key required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model required")
	}
	if c.Embedding.Dimensions <= 0 {
		return errors.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	return nil
}
