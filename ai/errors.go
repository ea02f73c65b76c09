package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// ProviderErrorKind classifies an embedding or generation provider failure.
type ProviderErrorKind string

const (
	// ProviderErrorAuth is an authentication or authorization failure.
	// Not retryable.
	ProviderErrorAuth ProviderErrorKind = "auth"

	// ProviderErrorRateLimit is a provider-side throttle.
	ProviderErrorRateLimit ProviderErrorKind = "rate_limit"

	// ProviderErrorTimeout is a deadline or cancellation.
	ProviderErrorTimeout ProviderErrorKind = "timeout"

	// ProviderErrorTransport covers connection resets, 5xx responses, and
	// everything else.
	ProviderErrorTransport ProviderErrorKind = "transport"
)

// ProviderError wraps a provider failure with its classification so callers
// can decide whether to retry.
type ProviderError struct {
	Err  error
	Kind ProviderErrorKind
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the call could succeed.
func (e *ProviderError) Retryable() bool {
	return e.Kind != ProviderErrorAuth
}

// newProviderError classifies err and wraps it. Already-classified errors
// pass through unchanged.
func newProviderError(err error) *ProviderError {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr
	}

	kind := ProviderErrorTransport

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = ProviderErrorTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = ProviderErrorAuth
		case http.StatusTooManyRequests:
			kind = ProviderErrorRateLimit
		case http.StatusRequestTimeout:
			kind = ProviderErrorTimeout
		}
	}

	return &ProviderError{Kind: kind, Err: err}
}
