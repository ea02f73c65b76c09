package ai

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestNewProviderErrorClassification(t *testing.T) {
	tests := []struct {
		err       error
		name      string
		wantKind  ProviderErrorKind
		retryable bool
	}{
		{
			name:      "auth failure",
			err:       &openai.APIError{HTTPStatusCode: http.StatusUnauthorized},
			wantKind:  ProviderErrorAuth,
			retryable: false,
		},
		{
			name:      "forbidden",
			err:       &openai.APIError{HTTPStatusCode: http.StatusForbidden},
			wantKind:  ProviderErrorAuth,
			retryable: false,
		},
		{
			name:      "rate limit",
			err:       &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
			wantKind:  ProviderErrorRateLimit,
			retryable: true,
		},
		{
			name:      "deadline exceeded",
			err:       context.DeadlineExceeded,
			wantKind:  ProviderErrorTimeout,
			retryable: true,
		},
		{
			name:      "plain transport failure",
			err:       errors.New("connection reset"),
			wantKind:  ProviderErrorTransport,
			retryable: true,
		},
		{
			name:      "server error",
			err:       &openai.APIError{HTTPStatusCode: http.StatusInternalServerError},
			wantKind:  ProviderErrorTransport,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provErr := newProviderError(tt.err)
			require.Equal(t, tt.wantKind, provErr.Kind)
			require.Equal(t, tt.retryable, provErr.Retryable())
		})
	}
}

func TestNewProviderErrorPassthrough(t *testing.T) {
	original := &ProviderError{Kind: ProviderErrorRateLimit, Err: errors.New("throttled")}
	wrapped := errors.Wrap(original, "embed failed")

	provErr := newProviderError(wrapped)
	require.Equal(t, ProviderErrorRateLimit, provErr.Kind)
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	provErr := newProviderError(inner)
	require.ErrorIs(t, provErr, inner)
}
