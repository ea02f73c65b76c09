package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/booksync/booksync/ai"
	"github.com/booksync/booksync/recommend"
)

// PredictRequest asks a question against the catalog.
type PredictRequest struct {
	Question       string            `json:"question"`
	MetadataFilter map[string]string `json:"metadata_filter,omitempty"`
	Limit          int               `json:"limit,omitempty"`
}

// PredictSource is one retrieved context entry in the response.
type PredictSource struct {
	Contents   string  `json:"contents"`
	SerieTitle string  `json:"serie_title"`
	Genre      string  `json:"genre"`
	Categorie  string  `json:"categorie"`
	Similarity float64 `json:"similarity"`
}

// PredictResponse is the synthesized answer plus its supporting context.
type PredictResponse struct {
	Answer         string          `json:"answer"`
	ThoughtProcess []string        `json:"thought_process"`
	Sources        []PredictSource `json:"sources"`
	EnoughContext  bool            `json:"enough_context"`
	Degraded       bool            `json:"degraded"`
}

// Predict runs similarity search for the question and synthesizes an
// answer over the retrieved context. Pipeline failures produce a degraded
// response body rather than a bare 500 so callers always get an answer
// object to show.
func (s *APIV1Service) Predict(c echo.Context) error {
	if s.Search == nil || s.Synthesizer == nil {
		return aiDisabled(c)
	}

	var req PredictRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return badRequest(c, "question is required")
	}

	ctx := c.Request().Context()

	scored, err := s.Search.Search(ctx, recommend.SearchRequest{
		Text:           req.Question,
		MetadataFilter: req.MetadataFilter,
		Limit:          req.Limit,
	})
	if err != nil {
		slog.Error("predict search failed", "error", err)
		s.Metrics.RecordPredictRequest("degraded")
		return c.JSON(http.StatusOK, degradedResponse("the search backend is currently unavailable"))
	}

	sources := make([]ai.SourceDocument, 0, len(scored))
	responseSources := make([]PredictSource, 0, len(scored))
	for _, record := range scored {
		sources = append(sources, ai.SourceDocument{
			Contents:   record.Contents,
			Similarity: record.Similarity,
		})
		responseSources = append(responseSources, PredictSource{
			Contents:   record.Contents,
			SerieTitle: record.SerieTitle(),
			Genre:      record.Genre(),
			Categorie:  record.Categorie(),
			Similarity: record.Similarity,
		})
	}

	result, err := s.Synthesizer.Synthesize(ctx, req.Question, sources)
	if err != nil {
		slog.Error("predict synthesis failed", "error", err)
		s.Metrics.RecordPredictRequest("degraded")
		resp := degradedResponse("the answer generator is currently unavailable")
		resp.Sources = responseSources
		return c.JSON(http.StatusOK, resp)
	}

	s.Metrics.RecordPredictRequest("success")
	s.Metrics.RecordSynthesis(result.EnoughContext)

	return c.JSON(http.StatusOK, PredictResponse{
		Answer:         result.Answer,
		ThoughtProcess: result.ThoughtProcess,
		Sources:        responseSources,
		EnoughContext:  result.EnoughContext,
	})
}

func degradedResponse(note string) PredictResponse {
	return PredictResponse{
		Answer:         "I could not process your question right now. Please try again later.",
		ThoughtProcess: []string{note},
		Sources:        []PredictSource{},
		Degraded:       true,
	}
}
