package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type scriptedEmbedding struct {
	responses []error
	calls     int
	dims      int
}

func (s *scriptedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *scriptedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	defer func() { s.calls++ }()
	if s.calls < len(s.responses) && s.responses[s.calls] != nil {
		return nil, s.responses[s.calls]
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = make([]float32, s.dims)
		vectors[i][0] = 1
	}
	return vectors, nil
}

func (s *scriptedEmbedding) Dimensions() int {
	return s.dims
}

func TestRetryEmbeddingSucceedsAfterTransientFailure(t *testing.T) {
	inner := &scriptedEmbedding{
		dims: 4,
		responses: []error{
			&ProviderError{Kind: ProviderErrorRateLimit, Err: context.DeadlineExceeded},
			&ProviderError{Kind: ProviderErrorTransport, Err: context.DeadlineExceeded},
			nil,
		},
	}

	svc := NewRetryEmbedding(inner, 3)
	vector, err := svc.Embed(context.Background(), "query text")
	require.NoError(t, err)
	require.Len(t, vector, 4)
	require.Equal(t, 3, inner.calls)
}

func TestRetryEmbeddingStopsOnAuthFailure(t *testing.T) {
	authErr := &ProviderError{Kind: ProviderErrorAuth, Err: context.DeadlineExceeded}
	inner := &scriptedEmbedding{dims: 4, responses: []error{authErr, authErr, authErr, authErr}}

	svc := NewRetryEmbedding(inner, 3)
	_, err := svc.Embed(context.Background(), "query text")
	require.Error(t, err)
	require.Equal(t, 1, inner.calls)
}

func TestRetryEmbeddingExhaustsBudget(t *testing.T) {
	transient := &ProviderError{Kind: ProviderErrorTransport, Err: context.DeadlineExceeded}
	inner := &scriptedEmbedding{dims: 4, responses: []error{transient, transient, transient}}

	svc := NewRetryEmbedding(inner, 2)
	_, err := svc.Embed(context.Background(), "query text")
	require.Error(t, err)
	require.Equal(t, 3, inner.calls) // initial attempt + 2 retries
}

func TestRetryEmbeddingZeroRetries(t *testing.T) {
	transient := &ProviderError{Kind: ProviderErrorTransport, Err: context.DeadlineExceeded}
	inner := &scriptedEmbedding{dims: 4, responses: []error{transient}}

	svc := NewRetryEmbedding(inner, 0)
	_, err := svc.Embed(context.Background(), "query text")
	require.Error(t, err)
	require.Equal(t, 1, inner.calls)
}

func TestRetryEmbeddingDimensionsPassthrough(t *testing.T) {
	svc := NewRetryEmbedding(&scriptedEmbedding{dims: 1536}, 3)
	require.Equal(t, 1536, svc.Dimensions())
}
