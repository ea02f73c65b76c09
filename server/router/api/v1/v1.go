// Package v1 implements the /api/v1 REST surface.
package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/booksync/booksync/ai"
	"github.com/booksync/booksync/internal/metrics"
	"github.com/booksync/booksync/internal/profile"
	"github.com/booksync/booksync/recommend"
	"github.com/booksync/booksync/store"
)

// Embedder generates vectors for record ingestion.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// APIV1Service holds the domain services behind the v1 routes. The AI
// members are nil when no provider key is configured; their routes then
// answer 503.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Metrics *metrics.Exporter

	Search      recommend.SearchService
	Aggregator  *recommend.Aggregator
	Synthesizer ai.Synthesizer
	Embedder    Embedder
}

// Register attaches the v1 routes to the group.
func (s *APIV1Service) Register(g *echo.Group) {
	g.POST("/predict", s.Predict)
	g.POST("/recommend", s.Recommend)
	g.POST("/records", s.UpsertRecords)
	g.DELETE("/records", s.DeleteRecords)
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Message string `json:"message"`
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Message: message})
}

func aiDisabled(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, errorResponse{
		Message: "AI provider is not configured",
	})
}
