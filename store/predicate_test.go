package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPredicateValidate(t *testing.T) {
	tests := []struct {
		predicate *Predicate
		name      string
		wantErr   bool
	}{
		{
			name:      "string equality leaf",
			predicate: NewPredicate("genre", OpEquals, "Manga"),
		},
		{
			name:      "numeric comparison leaf",
			predicate: NewPredicate("volume_number", OpGreaterThan, 1),
		},
		{
			name: "and compound",
			predicate: NewPredicate("genre", OpEquals, "Manga").
				And(NewPredicate("volume_number", OpGreaterThan, 1)),
		},
		{
			name: "or compound across fields",
			predicate: NewPredicate("genre", OpEquals, "Manga").
				Or(NewPredicate("serie_title", OpEquals, "008 Apprenti espion")),
		},
		{
			name: "nested compound",
			predicate: NewPredicate("genre", OpEquals, "Manga").
				And(NewPredicate("volume_number", OpGreaterOrEqual, 2).
					Or(NewPredicate("categorie", OpNotEquals, "Seinen"))),
		},
		{
			name:      "unknown operator",
			predicate: NewPredicate("genre", PredicateOperator("LIKE"), "Manga"),
			wantErr:   true,
		},
		{
			name:      "missing field",
			predicate: NewPredicate("", OpEquals, "Manga"),
			wantErr:   true,
		},
		{
			name:      "unsupported value type",
			predicate: NewPredicate("genre", OpEquals, []string{"Manga"}),
			wantErr:   true,
		},
		{
			name:      "compound missing operand",
			predicate: &Predicate{Conjunction: ConjunctionAnd, Left: NewPredicate("genre", OpEquals, "Manga")},
			wantErr:   true,
		},
		{
			name:      "unknown conjunction",
			predicate: &Predicate{Conjunction: Conjunction("XOR"), Left: NewPredicate("a", OpEquals, "b"), Right: NewPredicate("c", OpEquals, "d")},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.predicate.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedPredicate)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPredicateValidateNil(t *testing.T) {
	var p *Predicate
	require.NoError(t, p.Validate())
}

func TestIsNumericValue(t *testing.T) {
	require.True(t, IsNumericValue(1))
	require.True(t, IsNumericValue(int64(1)))
	require.True(t, IsNumericValue(1.5))
	require.False(t, IsNumericValue("1"))
	require.False(t, IsNumericValue(nil))
}
