// Package recommend implements the retrieval and aggregation engine:
// similarity search over the candidate store, profile-driven multi-query
// fan-out, deduplication, and recommendation reasons.
package recommend

import (
	"math"
	"sort"

	"github.com/booksync/booksync/store"
)

// ScoredRecord is a candidate record with its cosine similarity to the
// query vector.
type ScoredRecord struct {
	*store.Record
	Similarity float64
}

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||) in float64.
// It returns 0 when the vectors differ in length or either has zero norm.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RankTopK scores candidates against the query vector and returns the top
// limit results ordered by similarity descending.
//
// Candidates without an embedding or with a zero-norm embedding are
// excluded: they are not scored and do not count toward limit. Ties keep
// the store scan order (the sort is stable), so repeated runs over
// identical data produce identical output.
//
// The candidate slice is the bounded window fetched from the store, so the
// result is an approximate top-K over that window, not a guaranteed global
// top-K. Cost is O(len(candidates) * dimension).
func RankTopK(query []float32, candidates []*store.Record, limit int) []ScoredRecord {
	scored := make([]ScoredRecord, 0, len(candidates))
	for _, candidate := range candidates {
		if !hasRankableEmbedding(candidate.Embedding) {
			continue
		}
		scored = append(scored, ScoredRecord{
			Record:     candidate,
			Similarity: CosineSimilarity(query, candidate.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// hasRankableEmbedding reports whether the embedding is present with a
// non-zero norm.
func hasRankableEmbedding(embedding []float32) bool {
	for _, v := range embedding {
		if v != 0 {
			return true
		}
	}
	return false
}
