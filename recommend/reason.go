package recommend

import (
	"fmt"
	"strings"

	"github.com/booksync/booksync/store"
)

// moodKeywords maps a declared mood to genre fragments that fit it.
var moodKeywords = map[string][]string{
	"happy":       {"comedy", "slice of life", "humour", "humor"},
	"sad":         {"drama", "tragedy"},
	"adventurous": {"adventure", "action", "fantasy"},
	"curious":     {"mystery", "thriller", "science"},
	"romantic":    {"romance", "shoujo"},
	"nostalgic":   {"classic", "historical"},
}

// matureCategories are categories aimed at adult readers.
var matureCategories = map[string]bool{
	"seinen": true,
	"josei":  true,
}

// BuildReason explains why a record was recommended for the given profile.
// Rules are checked in a fixed order and at most the first two that apply
// are joined, so the same profile and record always produce the same text.
func BuildReason(profile *UserProfile, record *store.Record) string {
	genre := record.Genre()
	categorie := record.Categorie()

	reasons := []string{}

	if pref := profile.CategoryPreference; pref != "" {
		if strings.EqualFold(pref, categorie) || strings.Contains(strings.ToLower(genre), strings.ToLower(pref)) {
			reasons = append(reasons, fmt.Sprintf("matches your preferred %s category", pref))
		}
	}

	if mood := strings.ToLower(profile.Mood); mood != "" {
		lowerGenre := strings.ToLower(genre)
		for _, keyword := range moodKeywords[mood] {
			if strings.Contains(lowerGenre, keyword) {
				reasons = append(reasons, fmt.Sprintf("fits your %s mood", profile.Mood))
				break
			}
		}
	}

	if profile.Age >= 18 && matureCategories[strings.ToLower(categorie)] {
		reasons = append(reasons, fmt.Sprintf("the %s category suits adult readers", categorie))
	}

	if len(reasons) == 0 {
		return fmt.Sprintf("Similar to titles you enjoy in the %s genre", genre)
	}
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}

	text := strings.Join(reasons, " and ")
	return strings.ToUpper(text[:1]) + text[1:]
}
