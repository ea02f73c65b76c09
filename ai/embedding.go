package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/booksync/booksync/internal/metrics"
)

// EmbeddingService is the vector embedding service interface.
type EmbeddingService interface {
	// Embed generates a vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector dimension.
	Dimensions() int
}

type embeddingService struct {
	client     *openai.Client
	limiter    *rate.Limiter
	metrics    *metrics.Exporter
	model      string
	dimensions int
}

// NewEmbeddingService creates a new EmbeddingService for any
// OpenAI-compatible provider. The service performs exactly one provider
// call per request; retry policy belongs to NewRetryEmbedding. exporter
// may be nil.
func NewEmbeddingService(cfg *EmbeddingConfig, exporter *metrics.Exporter) (EmbeddingService, error) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	// A hung provider connection must not stall requests past the
	// configured deadline.
	clientConfig.HTTPClient = newHTTPClient(cfg.Timeout)

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &embeddingService{
		client:     openai.NewClientWithConfig(clientConfig),
		limiter:    limiter,
		metrics:    exporter,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

func (s *embeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("empty embedding result")
	}
	return vectors[0], nil
}

func (s *embeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided for embedding")
	}

	// Newlines degrade embedding quality with OpenAI-style models.
	normalized := make([]string, len(texts))
	for i, text := range texts {
		normalized[i] = strings.ReplaceAll(text, "\n", " ")
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, newProviderError(err)
		}
	}

	req := openai.EmbeddingRequest{
		Input:      normalized,
		Model:      openai.EmbeddingModel(s.model),
		Dimensions: s.dimensions,
	}

	start := time.Now()
	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, newProviderError(err)
	}
	latency := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordEmbedLatency(s.model, latency)
	}
	slog.Info("embedding generated",
		"model", s.model,
		"texts", len(texts),
		"duration", latency)

	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
	}

	return vectors, nil
}

func (s *embeddingService) Dimensions() int {
	return s.dimensions
}
