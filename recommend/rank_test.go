package recommend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/booksync/booksync/store"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{
			name: "identical vectors",
			a:    []float32{1, 2, 3},
			b:    []float32{1, 2, 3},
			want: 1,
		},
		{
			name: "orthogonal vectors",
			a:    []float32{1, 0},
			b:    []float32{0, 1},
			want: 0,
		},
		{
			name: "opposite vectors",
			a:    []float32{1, 0},
			b:    []float32{-1, 0},
			want: -1,
		},
		{
			name: "zero norm",
			a:    []float32{0, 0},
			b:    []float32{1, 1},
			want: 0,
		},
		{
			name: "length mismatch",
			a:    []float32{1, 2},
			b:    []float32{1, 2, 3},
			want: 0,
		},
		{
			name: "empty",
			a:    nil,
			b:    nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func candidateRecord(id string, embedding []float32) *store.Record {
	return &store.Record{
		ID:        id,
		Contents:  "volume " + id,
		Embedding: embedding,
	}
}

func TestRankTopKOrdersBySimilarity(t *testing.T) {
	query := []float32{1, 0}
	candidates := []*store.Record{
		candidateRecord("low", []float32{0.1, 1}),
		candidateRecord("high", []float32{1, 0.01}),
		candidateRecord("mid", []float32{1, 1}),
	}

	ranked := RankTopK(query, candidates, 10)
	require.Len(t, ranked, 3)
	require.Equal(t, "high", ranked[0].ID)
	require.Equal(t, "mid", ranked[1].ID)
	require.Equal(t, "low", ranked[2].ID)
	require.GreaterOrEqual(t, ranked[0].Similarity, ranked[1].Similarity)
	require.GreaterOrEqual(t, ranked[1].Similarity, ranked[2].Similarity)
}

func TestRankTopKTruncatesToLimit(t *testing.T) {
	query := []float32{1, 0}
	candidates := []*store.Record{
		candidateRecord("a", []float32{0.9, 0.1}),
		candidateRecord("b", []float32{0.5, 0.5}),
		candidateRecord("c", []float32{0.1, 0.9}),
	}

	ranked := RankTopK(query, candidates, 2)
	require.Len(t, ranked, 2)
	require.Equal(t, "a", ranked[0].ID)
	require.Equal(t, "b", ranked[1].ID)
}

func TestRankTopKSkipsUnrankableCandidates(t *testing.T) {
	query := []float32{1, 0}
	candidates := []*store.Record{
		candidateRecord("no-embedding", nil),
		candidateRecord("zero-norm", []float32{0, 0}),
		candidateRecord("ok", []float32{1, 0}),
	}

	ranked := RankTopK(query, candidates, 10)
	require.Len(t, ranked, 1)
	require.Equal(t, "ok", ranked[0].ID)
}

func TestRankTopKStableTieBreak(t *testing.T) {
	query := []float32{1, 0}
	candidates := []*store.Record{
		candidateRecord("first", []float32{2, 0}),
		candidateRecord("second", []float32{5, 0}),
	}

	// Both candidates point the same way, so their similarities tie at 1
	// and scan order must survive.
	ranked := RankTopK(query, candidates, 10)
	require.Len(t, ranked, 2)
	require.Equal(t, "first", ranked[0].ID)
	require.Equal(t, "second", ranked[1].ID)
}

func TestRankTopKFewerCandidatesThanLimit(t *testing.T) {
	query := []float32{1, 0}
	candidates := []*store.Record{
		candidateRecord("only", []float32{1, 1}),
	}

	ranked := RankTopK(query, candidates, 5)
	require.Len(t, ranked, 1)
}
