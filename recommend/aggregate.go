package recommend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/booksync/booksync/internal/metrics"
)

// ErrAllQueriesFailed is returned when every fan-out sub-query failed.
var ErrAllQueriesFailed = errors.New("all recommendation queries failed")

const (
	defaultRecommendLimit = 10
	maxRecommendLimit     = 50
	defaultMaxConcurrent  = 4
	defaultRequestTimeout = 60 * time.Second
)

// RecommendedItem is one entry in the aggregated recommendation list.
type RecommendedItem struct {
	Title      string  `json:"title"`
	SerieTitle string  `json:"serie_title"`
	Genre      string  `json:"genre"`
	Categorie  string  `json:"categorie"`
	Reason     string  `json:"reason"`
	Similarity float64 `json:"similarity"`
}

// RecommendRequest asks for recommendations derived from a reader profile.
// MetadataFilter, when set, narrows every derived sub-query to matching
// records.
type RecommendRequest struct {
	Profile        *UserProfile
	MetadataFilter map[string]string
	Limit          int
}

// RecommendResult is the aggregated outcome of a recommendation request.
type RecommendResult struct {
	Items        []RecommendedItem
	QueriesRun   int
	QueriesError int
}

// Aggregator fans a profile out into similarity sub-queries and merges
// the results into a single deduplicated recommendation list.
type Aggregator struct {
	search        SearchService
	metrics       *metrics.Exporter
	maxConcurrent int
	timeout       time.Duration
}

// NewAggregator creates an aggregator over the given search service.
// metrics may be nil. maxConcurrent <= 0 and timeout <= 0 fall back to
// the defaults.
func NewAggregator(search SearchService, exporter *metrics.Exporter, maxConcurrent int, timeout time.Duration) *Aggregator {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Aggregator{
		search:        search,
		metrics:       exporter,
		maxConcurrent: maxConcurrent,
		timeout:       timeout,
	}
}

// Recommend derives sub-queries from the profile, runs them concurrently, and
// merges the results. Individual sub-query failures are tolerated and logged;
// only when every sub-query fails does Recommend return ErrAllQueriesFailed.
func (a *Aggregator) Recommend(ctx context.Context, req *RecommendRequest) (*RecommendResult, error) {
	if req.Profile == nil {
		return nil, errors.New("recommend: profile is required")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultRecommendLimit
	}
	if limit > maxRecommendLimit {
		limit = maxRecommendLimit
	}

	queries := deriveQueries(req.Profile)

	// The whole fan-out shares one deadline; sub-queries still in flight
	// when it elapses are abandoned and count as failed.
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	// Results land in a slot per sub-query so merge order follows dispatch
	// order regardless of completion order.
	slots := make([][]ScoredRecord, len(queries))
	failed := make([]bool, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			scored, err := a.search.Search(gctx, SearchRequest{
				Text:           q.Text,
				MetadataFilter: req.MetadataFilter,
				Limit:          limit,
			})
			if a.metrics != nil {
				a.metrics.RecordSubQuery(q.Source, err == nil)
			}
			if err != nil {
				slog.Warn("recommendation sub-query failed",
					"source", q.Source,
					"serie", q.Serie,
					"error", err)
				failed[i] = true
				return nil
			}
			slots[i] = scored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	errored := 0
	for _, f := range failed {
		if f {
			errored++
		}
	}
	if errored == len(queries) {
		return nil, ErrAllQueriesFailed
	}

	items := a.merge(req.Profile, slots, limit)
	return &RecommendResult{
		Items:        items,
		QueriesRun:   len(queries),
		QueriesError: errored,
	}, nil
}

// merge flattens the per-query result slots in dispatch order, keeping the
// first occurrence of each series and dropping entries the reader already
// owns or has read.
func (a *Aggregator) merge(profile *UserProfile, slots [][]ScoredRecord, limit int) []RecommendedItem {
	seen := map[string]bool{}
	items := []RecommendedItem{}

	for _, scored := range slots {
		for _, rec := range scored {
			key := rec.SerieTitle()
			if key == "" {
				key = rec.ID
			}
			if seen[key] {
				continue
			}
			seen[key] = true

			if title := rec.SerieTitle(); title != "" {
				if _, owned := profile.Collection[title]; owned {
					continue
				}
				if _, read := profile.Read[title]; read {
					continue
				}
			}

			items = append(items, RecommendedItem{
				Title:      rec.Contents,
				SerieTitle: rec.SerieTitle(),
				Genre:      rec.Genre(),
				Categorie:  rec.Categorie(),
				Similarity: rec.Similarity,
				Reason:     BuildReason(profile, rec.Record),
			})
			if len(items) >= limit {
				return items
			}
		}
	}
	return items
}
