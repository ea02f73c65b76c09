package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const retryBaseDelay = 500 * time.Millisecond

// retryEmbedding decorates an EmbeddingService with exponential backoff.
// Auth failures never retry; rate limits, timeouts, and transport errors
// retry up to maxRetries additional attempts.
type retryEmbedding struct {
	inner      EmbeddingService
	maxRetries int
}

// NewRetryEmbedding wraps inner with retry policy.
func NewRetryEmbedding(inner EmbeddingService, maxRetries int) EmbeddingService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &retryEmbedding{inner: inner, maxRetries: maxRetries}
}

func (r *retryEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := r.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("empty embedding result")
	}
	return vectors[0], nil
}

func (r *retryEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			slog.Warn("retrying embedding request",
				"attempt", attempt,
				"max_retries", r.maxRetries,
				"delay", delay,
				"error", lastErr)
			select {
			case <-ctx.Done():
				return nil, newProviderError(ctx.Err())
			case <-time.After(delay):
			}
		}

		vectors, err := r.inner.EmbedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		var provErr *ProviderError
		if errors.As(err, &provErr) && !provErr.Retryable() {
			return nil, err
		}
	}

	return nil, lastErr
}

func (r *retryEmbedding) Dimensions() int {
	return r.inner.Dimensions()
}
