package profile

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// Profile is configuration to start the main server.
type Profile struct {
	// OpenAI-compatible provider configuration shared by the embedding
	// client and the synthesizer.
	AIAPIKey     string // provider API key
	AIBaseURL    string // provider base URL (optional, defaults to api.openai.com)
	AIModel      string // chat model used by the synthesizer
	AITimeout    int    // request timeout in seconds
	AIMaxRetries int    // embedding retry budget applied by the retry wrapper

	// Embedding configuration
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingRateLimit  float64 // provider requests per second, 0 disables throttling

	// Retrieval configuration
	CandidateWindow int // max rows fetched per similarity query before ranking
	MaxConcurrent   int // parallel sub-queries per aggregation
	RequestTimeout  int // deadline in seconds for one aggregation request

	Mode    string
	Addr    string
	Port    int
	Driver  string
	DSN     string
	Version string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the provider API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float64 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.AIAPIKey = getEnvOrDefault("BOOKSYNC_AI_API_KEY", "")
	p.AIBaseURL = getEnvOrDefault("BOOKSYNC_AI_BASE_URL", "")
	p.AIModel = getEnvOrDefault("BOOKSYNC_AI_MODEL", "gpt-4o")
	p.AITimeout = getEnvOrDefaultInt("BOOKSYNC_AI_TIMEOUT_SECONDS", 120)
	p.AIMaxRetries = getEnvOrDefaultInt("BOOKSYNC_AI_MAX_RETRIES", 3)

	p.EmbeddingModel = getEnvOrDefault("BOOKSYNC_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingDimensions = getEnvOrDefaultInt("BOOKSYNC_EMBEDDING_DIMENSIONS", 1536)
	p.EmbeddingRateLimit = getEnvOrDefaultFloat("BOOKSYNC_EMBEDDING_RATE_LIMIT", 0)

	p.CandidateWindow = getEnvOrDefaultInt("BOOKSYNC_CANDIDATE_WINDOW", 1000)
	p.MaxConcurrent = getEnvOrDefaultInt("BOOKSYNC_MAX_CONCURRENT_QUERIES", 4)
	p.RequestTimeout = getEnvOrDefaultInt("BOOKSYNC_REQUEST_TIMEOUT_SECONDS", 60)
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver != "postgres" && p.Driver != "sqlite" {
		return fmt.Errorf("unsupported driver %q, expected postgres or sqlite", p.Driver)
	}

	if p.DSN == "" {
		if p.Driver == "sqlite" {
			p.DSN = fmt.Sprintf("booksync_%s.db", p.Mode)
		} else {
			return fmt.Errorf("dsn required for driver %q", p.Driver)
		}
	}

	if p.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", p.EmbeddingDimensions)
	}

	if p.CandidateWindow <= 0 {
		slog.Warn("invalid candidate window, using default", "value", p.CandidateWindow)
		p.CandidateWindow = 1000
	}
	if p.MaxConcurrent <= 0 {
		p.MaxConcurrent = 4
	}

	return nil
}
