package match

import (
	"sort"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// RankedDish is a dish scored by the user's ingredient ratings.
type RankedDish struct {
	Recipe     domain.Recipe `json:"recipe"`
	Preference int           `json:"preference"`
}

// RankByPreference orders recipes by the sum of the pantry's ratings over each
// recipe's requirements, highest first, ties by name then ID. Unrated ingredients count zero.
func RankByPreference(recipes []domain.Recipe, pantry *domain.Pantry) []RankedDish {
	out := make([]RankedDish, 0, len(recipes))
	for _, r := range recipes {
		r = r.Normalized()
		total := 0
		if pantry != nil {
			for _, ing := range r.Ingredients {
				total += pantry.Ratings[ing]
			}
		}
		out = append(out, RankedDish{Recipe: r, Preference: total})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Preference != out[j].Preference {
			return out[i].Preference > out[j].Preference
		}
		if out[i].Recipe.Name != out[j].Recipe.Name {
			return out[i].Recipe.Name < out[j].Recipe.Name
		}
		return out[i].Recipe.ID < out[j].Recipe.ID
	})
	return out
}
