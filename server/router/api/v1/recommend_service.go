package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/booksync/booksync/recommend"
)

// RecommendRequest carries the reader profile for aggregation. An
// optional metadata filter narrows every derived sub-query.
type RecommendRequest struct {
	Profile        *recommend.UserProfile `json:"profile"`
	MetadataFilter map[string]string      `json:"metadata_filter,omitempty"`
	Limit          int                    `json:"limit,omitempty"`
}

// RecommendResponse is the aggregated recommendation list.
type RecommendResponse struct {
	Items        []recommend.RecommendedItem `json:"items"`
	QueriesRun   int                         `json:"queries_run"`
	QueriesError int                         `json:"queries_error"`
}

// Recommend derives queries from the profile, fans them out, and returns
// the merged recommendation list with reasons.
func (s *APIV1Service) Recommend(c echo.Context) error {
	if s.Aggregator == nil {
		return aiDisabled(c)
	}

	var req RecommendRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Profile == nil {
		return badRequest(c, "profile is required")
	}

	result, err := s.Aggregator.Recommend(c.Request().Context(), &recommend.RecommendRequest{
		Profile:        req.Profile,
		MetadataFilter: req.MetadataFilter,
		Limit:          req.Limit,
	})
	if err != nil {
		if errors.Is(err, recommend.ErrAllQueriesFailed) {
			slog.Error("all recommendation queries failed")
			return c.JSON(http.StatusServiceUnavailable, errorResponse{
				Message: "recommendation backend is currently unavailable",
			})
		}
		return badRequest(c, err.Error())
	}

	return c.JSON(http.StatusOK, RecommendResponse{
		Items:        result.Items,
		QueriesRun:   result.QueriesRun,
		QueriesError: result.QueriesError,
	})
}
