package recommend

import (
	"fmt"
	"sort"
)

// PredictionType selects what the caller wants derived from a profile.
type PredictionType string

const (
	// PredictionCollection asks for suggestions close to the owned series.
	PredictionCollection PredictionType = "collection"

	// PredictionRecommendation asks for new series to pick up.
	PredictionRecommendation PredictionType = "recommendation"
)

// VolumeInfo describes the reader's progress within one series.
type VolumeInfo struct {
	OwnedVolumes int `json:"owned_volumes,omitempty"`
	ReadVolumes  int `json:"read_volumes,omitempty"`
	LastVolume   int `json:"last_volume,omitempty"`
}

// UserProfile is the reader profile driving a recommendation request.
// Collection and Read map series names to progress info.
type UserProfile struct {
	Collection         map[string]VolumeInfo `json:"collection,omitempty"`
	Read               map[string]VolumeInfo `json:"read,omitempty"`
	Gender             string                `json:"gender,omitempty"`
	GenrePreference    string                `json:"genre_preference,omitempty"`
	CategoryPreference string                `json:"category_preference,omitempty"`
	Mood               string                `json:"mood,omitempty"`
	PredictionType     PredictionType        `json:"prediction_type,omitempty"`
	Age                int                   `json:"age,omitempty"`
}

// derivedQuery is one similarity query derived from a profile.
type derivedQuery struct {
	Text   string
	Source string // "collection", "read", or "profile"
	Serie  string
}

// deriveQueries builds the fan-out set for a profile: one query per owned
// series, one per read series, or a single profile query when the reader
// has neither. Series names are sorted so dispatch order, and therefore
// merge order, is deterministic.
func deriveQueries(profile *UserProfile) []derivedQuery {
	queries := []derivedQuery{}

	for _, serie := range sortedSeries(profile.Collection) {
		queries = append(queries, derivedQuery{
			Text:   fmt.Sprintf("Series similar to %s in the %s category", serie, orAny(profile.CategoryPreference)),
			Source: "collection",
			Serie:  serie,
		})
	}

	for _, serie := range sortedSeries(profile.Read) {
		queries = append(queries, derivedQuery{
			Text:   fmt.Sprintf("Series similar to %s", serie),
			Source: "read",
			Serie:  serie,
		})
	}

	if len(queries) == 0 {
		queries = append(queries, derivedQuery{
			Text:   fmt.Sprintf("Series for a %s mood in the %s category", orAny(profile.Mood), orAny(profile.CategoryPreference)),
			Source: "profile",
		})
	}

	return queries
}

func sortedSeries(m map[string]VolumeInfo) []string {
	series := make([]string, 0, len(m))
	for name := range m {
		series = append(series, name)
	}
	sort.Strings(series)
	return series
}

func orAny(value string) string {
	if value == "" {
		return "any"
	}
	return value
}
