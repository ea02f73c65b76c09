package recommend

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/booksync/booksync/internal/metrics"
	"github.com/booksync/booksync/store"
)

const (
	// defaultSearchLimit applies when a request carries no limit.
	defaultSearchLimit = 5

	// maxSearchLimit bounds a single query's result size.
	maxSearchLimit = 100

	// defaultCandidateWindow caps the rows fetched from the store before
	// ranking. Ranking is approximate top-K over this window.
	defaultCandidateWindow = 1000
)

// Embedder generates a vector embedding for a text.
// This is a local interface to avoid a dependency on the ai package.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CandidateStore is the slice of the store the engine reads.
type CandidateStore interface {
	ScanRecords(ctx context.Context, find *store.FindRecord) ([]*store.Record, error)
}

// SearchRequest describes one similarity query.
type SearchRequest struct {
	MetadataFilter map[string]string
	Predicate      *store.Predicate
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	Text           string
	Limit          int
}

// SearchService runs one similarity query. Implemented by Searcher;
// declared as an interface so the aggregator can be tested without a store.
type SearchService interface {
	Search(ctx context.Context, req SearchRequest) ([]ScoredRecord, error)
}

// Searcher composes the embedder, the candidate store, and the ranker into
// a single search operation.
type Searcher struct {
	embedder        Embedder
	candidates      CandidateStore
	metrics         *metrics.Exporter
	candidateWindow int
}

// NewSearcher creates a Searcher. candidateWindow caps the rows fetched
// per query; zero or negative selects the default. exporter may be nil.
func NewSearcher(embedder Embedder, candidates CandidateStore, candidateWindow int, exporter *metrics.Exporter) *Searcher {
	if candidateWindow <= 0 {
		candidateWindow = defaultCandidateWindow
	}
	return &Searcher{
		embedder:        embedder,
		candidates:      candidates,
		metrics:         exporter,
		candidateWindow: candidateWindow,
	}
}

// Search embeds the query text, scans the filtered candidate window, and
// ranks it. Zero matching candidates yield an empty result, not an error.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) ([]ScoredRecord, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	queryVector, err := s.embedder.Embed(ctx, req.Text)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query text")
	}

	start := time.Now()
	candidates, err := s.candidates.ScanRecords(ctx, &store.FindRecord{
		MetadataFilter: req.MetadataFilter,
		Predicate:      req.Predicate,
		CreatedAfter:   req.CreatedAfter,
		CreatedBefore:  req.CreatedBefore,
		Limit:          s.candidateWindow,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan candidates")
	}

	ranked := RankTopK(queryVector, candidates, limit)
	latency := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordSearch(latency, len(ranked))
	}
	slog.Info("similarity search completed",
		"candidates", len(candidates),
		"ranked", len(ranked),
		"duration", latency)

	return ranked, nil
}
