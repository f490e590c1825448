package domain

import "github.com/goccy/go-json"

// Classification buckets a recipe for a given selection and threshold.
type Classification string

const (
	Complete     Classification = "complete"
	NearComplete Classification = "near_complete"
	Incomplete   Classification = "incomplete"
)

// DefaultThreshold is the fraction of required ingredients at which a recipe
// counts as near-complete.
const DefaultThreshold = 0.75

// MatchResult scores one recipe against a selection.
type MatchResult struct {
	Recipe         Recipe         `json:"recipe"`
	Available      int            `json:"available"`
	Total          int            `json:"total"`
	Score          int            `json:"score"`
	Missing        []string       `json:"missing"`
	Classification Classification `json:"classification"`
}

// MarshalJSON also flattens the recipe id and name onto the result, so clients
// can list results without reaching into the nested recipe.
func (r MatchResult) MarshalJSON() ([]byte, error) {
	type plain MatchResult
	return json.Marshal(struct {
		RecipeID string `json:"recipe_id"`
		Name     string `json:"name"`
		plain
	}{RecipeID: r.Recipe.ID, Name: r.Recipe.Name, plain: plain(r)})
}

// MatchSet is the classified, ranked output of one search.
type MatchSet struct {
	Complete     []MatchResult `json:"complete"`
	NearComplete []MatchResult `json:"near_complete"`
	Incomplete   []MatchResult `json:"incomplete"`
}

// Len is the number of classified recipes.
func (s MatchSet) Len() int {
	return len(s.Complete) + len(s.NearComplete) + len(s.Incomplete)
}

// All returns every result, complete first.
func (s MatchSet) All() []MatchResult {
	all := make([]MatchResult, 0, s.Len())
	all = append(all, s.Complete...)
	all = append(all, s.NearComplete...)
	all = append(all, s.Incomplete...)
	return all
}

// DishMatch is the cross-check view of a catalog dish against a set of ingredients.
type DishMatch struct {
	DishID       string   `json:"dish_id"`
	Name         string   `json:"name"`
	MatchPercent int      `json:"match_percent"`
	Price        float64  `json:"price"`
	Rating       int      `json:"rating"`
	Missing      []string `json:"missing,omitempty"`
}
