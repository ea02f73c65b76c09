package recommend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeSearchService returns scripted results per query text and records
// the requests it received.
type fakeSearchService struct {
	mu       sync.Mutex
	results  map[string][]ScoredRecord
	failures map[string]error
	requests []SearchRequest
}

func (f *fakeSearchService) Search(_ context.Context, req SearchRequest) ([]ScoredRecord, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err, ok := f.failures[req.Text]; ok {
		return nil, err
	}
	return f.results[req.Text], nil
}

// blockedSearchService hangs until the request context is cancelled.
type blockedSearchService struct{}

func (blockedSearchService) Search(ctx context.Context, _ SearchRequest) ([]ScoredRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func scoredSerie(serie string, similarity float64) ScoredRecord {
	return ScoredRecord{
		Record:     catalogRecord(serie, "Adventure", "Shonen"),
		Similarity: similarity,
	}
}

func TestRecommendMergesInDispatchOrder(t *testing.T) {
	profile := &UserProfile{
		Collection: map[string]VolumeInfo{
			"Alpha": {},
			"Beta":  {},
		},
	}
	queries := deriveQueries(profile)
	require.Len(t, queries, 2)

	search := &fakeSearchService{results: map[string][]ScoredRecord{
		queries[0].Text: {scoredSerie("Gamma", 0.9), scoredSerie("Delta", 0.8)},
		queries[1].Text: {scoredSerie("Epsilon", 0.95)},
	}}

	agg := NewAggregator(search, nil, 2, 0)
	got, err := agg.Recommend(context.Background(), &RecommendRequest{Profile: profile, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, got.QueriesRun)
	require.Zero(t, got.QueriesError)

	// Merge follows dispatch order even though Epsilon scored highest.
	titles := make([]string, 0, len(got.Items))
	for _, item := range got.Items {
		titles = append(titles, item.SerieTitle)
	}
	require.Equal(t, []string{"Gamma", "Delta", "Epsilon"}, titles)
}

func TestRecommendDeduplicatesBySerie(t *testing.T) {
	profile := &UserProfile{
		Collection: map[string]VolumeInfo{"Alpha": {}, "Beta": {}},
	}
	queries := deriveQueries(profile)

	search := &fakeSearchService{results: map[string][]ScoredRecord{
		queries[0].Text: {scoredSerie("Gamma", 0.9)},
		queries[1].Text: {scoredSerie("Gamma", 0.99), scoredSerie("Delta", 0.5)},
	}}

	agg := NewAggregator(search, nil, 2, 0)
	got, err := agg.Recommend(context.Background(), &RecommendRequest{Profile: profile})
	require.NoError(t, err)
	require.Len(t, got.Items, 2)

	// First occurrence wins: Gamma keeps the score from the first slot.
	require.Equal(t, "Gamma", got.Items[0].SerieTitle)
	require.InDelta(t, 0.9, got.Items[0].Similarity, 1e-9)
	require.Equal(t, "Delta", got.Items[1].SerieTitle)
}

func TestRecommendExcludesOwnedAndReadSeries(t *testing.T) {
	profile := &UserProfile{
		Collection: map[string]VolumeInfo{"Alpha": {}},
		Read:       map[string]VolumeInfo{"Beta": {}},
	}
	queries := deriveQueries(profile)

	search := &fakeSearchService{results: map[string][]ScoredRecord{
		queries[0].Text: {scoredSerie("Alpha", 0.99), scoredSerie("Gamma", 0.7)},
		queries[1].Text: {scoredSerie("Beta", 0.95)},
	}}

	agg := NewAggregator(search, nil, 2, 0)
	got, err := agg.Recommend(context.Background(), &RecommendRequest{Profile: profile})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.Equal(t, "Gamma", got.Items[0].SerieTitle)
}

func TestRecommendTruncatesToLimit(t *testing.T) {
	profile := &UserProfile{Collection: map[string]VolumeInfo{"Alpha": {}}}
	queries := deriveQueries(profile)

	search := &fakeSearchService{results: map[string][]ScoredRecord{
		queries[0].Text: {
			scoredSerie("B", 0.9),
			scoredSerie("C", 0.8),
			scoredSerie("D", 0.7),
		},
	}}

	agg := NewAggregator(search, nil, 1, 0)
	got, err := agg.Recommend(context.Background(), &RecommendRequest{Profile: profile, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
}

func TestRecommendToleratesPartialFailure(t *testing.T) {
	profile := &UserProfile{
		Collection: map[string]VolumeInfo{"Alpha": {}, "Beta": {}, "Gamma": {}},
	}
	queries := deriveQueries(profile)

	search := &fakeSearchService{
		results: map[string][]ScoredRecord{
			queries[0].Text: {scoredSerie("Delta", 0.9)},
			queries[2].Text: {scoredSerie("Epsilon", 0.8)},
		},
		failures: map[string]error{
			queries[1].Text: errors.New("embedding provider down"),
		},
	}

	agg := NewAggregator(search, nil, 3, 0)
	got, err := agg.Recommend(context.Background(), &RecommendRequest{Profile: profile})
	require.NoError(t, err)
	require.Equal(t, 3, got.QueriesRun)
	require.Equal(t, 1, got.QueriesError)
	require.Len(t, got.Items, 2)
}

func TestRecommendAllQueriesFailed(t *testing.T) {
	profile := &UserProfile{Collection: map[string]VolumeInfo{"Alpha": {}}}
	queries := deriveQueries(profile)

	search := &fakeSearchService{failures: map[string]error{
		queries[0].Text: errors.New("down"),
	}}

	agg := NewAggregator(search, nil, 1, 0)
	_, err := agg.Recommend(context.Background(), &RecommendRequest{Profile: profile})
	require.ErrorIs(t, err, ErrAllQueriesFailed)
}

func TestRecommendDeadlineBoundsHungSearches(t *testing.T) {
	profile := &UserProfile{Collection: map[string]VolumeInfo{"Alpha": {}}}

	agg := NewAggregator(blockedSearchService{}, nil, 1, 50*time.Millisecond)
	start := time.Now()
	_, err := agg.Recommend(context.Background(), &RecommendRequest{Profile: profile})
	require.ErrorIs(t, err, ErrAllQueriesFailed)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestRecommendForwardsMetadataFilter(t *testing.T) {
	profile := &UserProfile{Collection: map[string]VolumeInfo{"Alpha": {}}}
	queries := deriveQueries(profile)

	search := &fakeSearchService{results: map[string][]ScoredRecord{
		queries[0].Text: {scoredSerie("Beta", 0.9)},
	}}

	agg := NewAggregator(search, nil, 1, 0)
	_, err := agg.Recommend(context.Background(), &RecommendRequest{
		Profile:        profile,
		MetadataFilter: map[string]string{"genre": "Manga"},
	})
	require.NoError(t, err)
	require.Len(t, search.requests, 1)
	require.Equal(t, "Manga", search.requests[0].MetadataFilter["genre"])
}

func TestRecommendRequiresProfile(t *testing.T) {
	agg := NewAggregator(&fakeSearchService{}, nil, 1, 0)
	_, err := agg.Recommend(context.Background(), &RecommendRequest{})
	require.Error(t, err)
}

func TestRecommendEmptyProfileRunsFallbackQuery(t *testing.T) {
	profile := &UserProfile{Mood: "curious"}
	queries := deriveQueries(profile)
	require.Len(t, queries, 1)

	search := &fakeSearchService{results: map[string][]ScoredRecord{
		queries[0].Text: {scoredSerie("Monster", 0.8)},
	}}

	agg := NewAggregator(search, nil, 1, 0)
	got, err := agg.Recommend(context.Background(), &RecommendRequest{Profile: profile})
	require.NoError(t, err)
	require.Equal(t, 1, got.QueriesRun)
	require.Len(t, got.Items, 1)
	require.Equal(t, "Monster", got.Items[0].SerieTitle)
}
