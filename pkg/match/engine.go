package match

import (
	"math"
	"sort"

	"github.com/aretw0/smartmeal/pkg/domain"
)

const opCompute = "compute_matches"

// Score returns round(available/total*100) with halves rounded up.
// It uses integer arithmetic so equal inputs never disagree on a boundary.
func Score(available, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*available + total) / (2 * total)
}

// ValidateThreshold rejects thresholds outside (0, 1].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold <= 0 || threshold > 1 {
		return domain.Errorf(domain.KindInvalidInput, opCompute, "threshold %v outside (0, 1]", threshold)
	}
	return nil
}

// Classify buckets a score for the given threshold.
func Classify(score int, threshold float64) domain.Classification {
	switch {
	case score >= 100:
		return domain.Complete
	case float64(score) >= cutoff(threshold):
		return domain.NearComplete
	default:
		return domain.Incomplete
	}
}

// cutoff is threshold*100 rounded to two decimals, so 0.7 compares as 70 and not 70.00000000000001.
func cutoff(threshold float64) float64 {
	return math.Round(threshold*10000) / 100
}

// normalizeSelection returns the selection as a set of normalized IDs.
func normalizeSelection(selected []string) map[string]struct{} {
	set := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		if n := domain.NormalizeID(id); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func validate(selected []string, threshold float64) (map[string]struct{}, error) {
	set := normalizeSelection(selected)
	if len(set) == 0 {
		return nil, domain.Errorf(domain.KindInvalidInput, opCompute, "empty selection")
	}
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	return set, nil
}

// Evaluate scores one recipe against a normalized selection set.
func Evaluate(r domain.Recipe, set map[string]struct{}, threshold float64) domain.MatchResult {
	res := domain.MatchResult{
		Recipe:  r,
		Total:   len(r.Ingredients),
		Missing: make([]string, 0),
	}
	for _, ing := range r.Ingredients {
		if _, ok := set[ing]; ok {
			res.Available++
		} else {
			res.Missing = append(res.Missing, ing)
		}
	}
	res.Score = Score(res.Available, res.Total)
	res.Classification = Classify(res.Score, threshold)
	return res
}

// ComputeMatches classifies and ranks every recipe of catalog against the selection.
//
// It fails with domain.ErrInvalidInput when the selection is empty or the threshold is
// outside (0, 1]. Requirement lists are normalized as in domain.Recipe.Normalized and
// recipes left without requirements are skipped. Within each bucket results are ordered by
// score descending, then name and ID ascending.
func ComputeMatches(selected []string, catalog []domain.Recipe, threshold float64) (domain.MatchSet, error) {
	set, err := validate(selected, threshold)
	if err != nil {
		return domain.MatchSet{}, err
	}
	return compute(set, catalog, threshold), nil
}

func compute(set map[string]struct{}, catalog []domain.Recipe, threshold float64) domain.MatchSet {
	out := domain.MatchSet{
		Complete:     []domain.MatchResult{},
		NearComplete: []domain.MatchResult{},
		Incomplete:   []domain.MatchResult{},
	}
	for _, r := range catalog {
		r = r.Normalized()
		if len(r.Ingredients) == 0 {
			continue
		}
		res := Evaluate(r, set, threshold)
		switch res.Classification {
		case domain.Complete:
			out.Complete = append(out.Complete, res)
		case domain.NearComplete:
			out.NearComplete = append(out.NearComplete, res)
		default:
			out.Incomplete = append(out.Incomplete, res)
		}
	}
	rank(out.Complete)
	rank(out.NearComplete)
	rank(out.Incomplete)
	return out
}

func rank(results []domain.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Recipe.Name != b.Recipe.Name {
			return a.Recipe.Name < b.Recipe.Name
		}
		return a.Recipe.ID < b.Recipe.ID
	})
}
