package recommend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveQueriesFromCollectionAndRead(t *testing.T) {
	profile := &UserProfile{
		CategoryPreference: "Shonen",
		Collection: map[string]VolumeInfo{
			"One Piece": {OwnedVolumes: 42},
			"Berserk":   {OwnedVolumes: 10},
		},
		Read: map[string]VolumeInfo{
			"Monster": {ReadVolumes: 18},
		},
	}

	queries := deriveQueries(profile)
	require.Len(t, queries, 3)

	// Collection series come first, alphabetically, then read series.
	require.Equal(t, "collection", queries[0].Source)
	require.Equal(t, "Berserk", queries[0].Serie)
	require.Equal(t, "collection", queries[1].Source)
	require.Equal(t, "One Piece", queries[1].Serie)
	require.Equal(t, "read", queries[2].Source)
	require.Equal(t, "Monster", queries[2].Serie)

	require.Contains(t, queries[0].Text, "Berserk")
	require.Contains(t, queries[0].Text, "Shonen")
}

func TestDeriveQueriesIsDeterministic(t *testing.T) {
	profile := &UserProfile{
		Collection: map[string]VolumeInfo{
			"C": {}, "A": {}, "B": {},
		},
	}

	first := deriveQueries(profile)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, deriveQueries(profile))
	}
}

func TestDeriveQueriesEmptyProfileFallsBack(t *testing.T) {
	profile := &UserProfile{Mood: "curious", CategoryPreference: "Seinen"}

	queries := deriveQueries(profile)
	require.Len(t, queries, 1)
	require.Equal(t, "profile", queries[0].Source)
	require.Contains(t, queries[0].Text, "curious")
	require.Contains(t, queries[0].Text, "Seinen")
}

func TestDeriveQueriesBlankProfileUsesAny(t *testing.T) {
	queries := deriveQueries(&UserProfile{})
	require.Len(t, queries, 1)
	require.Contains(t, queries[0].Text, "any")
}
