package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/booksync/booksync/store"
)

// UpsertRecordsRequest carries catalog entries to insert or update.
type UpsertRecordsRequest struct {
	Records []RecordPayload `json:"records"`
}

// RecordPayload is one catalog entry on the wire. Embedding is optional;
// entries without one are embedded server-side when a provider is
// configured, and stored without a vector otherwise.
type RecordPayload struct {
	ID        string         `json:"id,omitempty"`
	Contents  string         `json:"contents"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
}

// UpsertRecordsResponse reports how many records were written.
type UpsertRecordsResponse struct {
	Upserted int `json:"upserted"`
	Embedded int `json:"embedded"`
}

// DeleteRecordsRequest selects records to delete by exactly one criterion.
type DeleteRecordsRequest struct {
	IDs            []string          `json:"ids,omitempty"`
	MetadataFilter map[string]string `json:"metadata_filter,omitempty"`
	All            bool              `json:"all,omitempty"`
}

// DeleteRecordsResponse reports how many records were removed.
type DeleteRecordsResponse struct {
	Deleted int64 `json:"deleted"`
}

// UpsertRecords writes catalog entries, embedding the ones that arrive
// without a vector when the provider is available.
func (s *APIV1Service) UpsertRecords(c echo.Context) error {
	var req UpsertRecordsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.Records) == 0 {
		return badRequest(c, "records are required")
	}
	for _, payload := range req.Records {
		if payload.Contents == "" {
			return badRequest(c, "record contents are required")
		}
	}

	ctx := c.Request().Context()

	records := make([]*store.Record, 0, len(req.Records))
	missing := []int{}
	for i, payload := range req.Records {
		records = append(records, &store.Record{
			ID:        payload.ID,
			Contents:  payload.Contents,
			Metadata:  payload.Metadata,
			Embedding: payload.Embedding,
		})
		if len(payload.Embedding) == 0 {
			missing = append(missing, i)
		}
	}

	embedded := 0
	if len(missing) > 0 && s.Embedder != nil {
		texts := make([]string, 0, len(missing))
		for _, i := range missing {
			texts = append(texts, records[i].Contents)
		}
		vectors, err := s.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return c.JSON(http.StatusBadGateway, errorResponse{
				Message: errors.Wrap(err, "failed to embed records").Error(),
			})
		}
		for n, i := range missing {
			records[i].Embedding = vectors[n]
		}
		embedded = len(missing)
	}

	if err := s.Store.UpsertRecords(ctx, records); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message: "failed to upsert records",
		})
	}

	return c.JSON(http.StatusOK, UpsertRecordsResponse{
		Upserted: len(records),
		Embedded: embedded,
	})
}

// DeleteRecords removes records by exactly one criterion. Requests naming
// zero or several criteria are rejected with 400.
func (s *APIV1Service) DeleteRecords(c echo.Context) error {
	var req DeleteRecordsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	deleted, err := s.Store.DeleteRecords(c.Request().Context(), &store.DeleteRecord{
		IDs:            req.IDs,
		MetadataFilter: req.MetadataFilter,
		All:            req.All,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidDeleteCriteria) {
			return badRequest(c, err.Error())
		}
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Message: "failed to delete records",
		})
	}

	return c.JSON(http.StatusOK, DeleteRecordsResponse{Deleted: deleted})
}
