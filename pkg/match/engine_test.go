package match

import (
	"fmt"
	"math"
	"testing"

	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipe(id, name string, ingredients ...string) domain.Recipe {
	return domain.Recipe{ID: id, Name: name, Ingredients: ingredients}
}

func TestComputeMatches_Scenario(t *testing.T) {
	catalog := []domain.Recipe{
		recipe("a", "Recipe A", "tomato", "cheese", "bread"),
		recipe("b", "Recipe B", "tomato", "cheese"),
	}

	set, err := ComputeMatches([]string{"tomato", "cheese"}, catalog, 0.75)
	require.NoError(t, err)

	require.Len(t, set.Complete, 1)
	b := set.Complete[0]
	assert.Equal(t, "b", b.Recipe.ID)
	assert.Equal(t, 2, b.Available)
	assert.Equal(t, 2, b.Total)
	assert.Equal(t, 100, b.Score)
	assert.Empty(t, b.Missing)
	assert.Equal(t, domain.Complete, b.Classification)

	assert.Empty(t, set.NearComplete)

	require.Len(t, set.Incomplete, 1)
	a := set.Incomplete[0]
	assert.Equal(t, "a", a.Recipe.ID)
	assert.Equal(t, 2, a.Available)
	assert.Equal(t, 3, a.Total)
	assert.Equal(t, 67, a.Score)
	assert.Equal(t, []string{"bread"}, a.Missing)
	assert.Equal(t, domain.Incomplete, a.Classification)
}

func TestComputeMatches_Validation(t *testing.T) {
	catalog := []domain.Recipe{recipe("a", "A", "x")}

	tests := []struct {
		name      string
		selected  []string
		threshold float64
	}{
		{"empty selection", nil, 0.75},
		{"blank selection", []string{" ", ""}, 0.75},
		{"zero threshold", []string{"x"}, 0},
		{"negative threshold", []string{"x"}, -0.1},
		{"threshold above one", []string{"x"}, 1.01},
		{"NaN threshold", []string{"x"}, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeMatches(tt.selected, catalog, tt.threshold)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
		})
	}

	_, err := ComputeMatches([]string{"x"}, catalog, 1)
	assert.NoError(t, err, "threshold of exactly one is accepted")
}

func TestScore_RoundsHalfUp(t *testing.T) {
	assert.Equal(t, 13, Score(1, 8)) // 12.5
	assert.Equal(t, 38, Score(3, 8)) // 37.5
	assert.Equal(t, 67, Score(2, 3))
	assert.Equal(t, 33, Score(1, 3))
	assert.Equal(t, 50, Score(1, 2))
	assert.Equal(t, 0, Score(0, 5))
	assert.Equal(t, 100, Score(4, 4))
	assert.Equal(t, 0, Score(1, 0))
}

func TestClassify_Boundaries(t *testing.T) {
	assert.Equal(t, domain.Complete, Classify(100, 0.75))
	assert.Equal(t, domain.NearComplete, Classify(75, 0.75))
	assert.Equal(t, domain.Incomplete, Classify(74, 0.75))
	assert.Equal(t, domain.NearComplete, Classify(70, 0.7))
	assert.Equal(t, domain.Complete, Classify(100, 1))
	assert.Equal(t, domain.Incomplete, Classify(99, 1))
}

func TestComputeMatches_RankingAndOrder(t *testing.T) {
	catalog := []domain.Recipe{
		recipe("3", "Zucchini bake", "egg", "zucchini", "flour", "milk"),
		recipe("2", "Omelette", "egg", "milk", "salt", "pepper"),
		recipe("1", "Crepes", "milk", "flour", "egg", "sugar"),
		recipe("4", "Salad", "lettuce", "tomato", "onion", "oil"),
	}
	set, err := ComputeMatches([]string{"egg", "milk", "flour"}, catalog, 0.75)
	require.NoError(t, err)

	require.Len(t, set.NearComplete, 2)
	assert.Equal(t, "Crepes", set.NearComplete[0].Recipe.Name, "equal scores order by name")
	assert.Equal(t, "Zucchini bake", set.NearComplete[1].Recipe.Name)
	assert.Equal(t, []string{"sugar"}, set.NearComplete[0].Missing)

	require.Len(t, set.Incomplete, 2)
	assert.Equal(t, "Omelette", set.Incomplete[0].Recipe.Name, "higher score first")
	assert.Equal(t, []string{"salt", "pepper"}, set.Incomplete[0].Missing, "missing keeps declared order")
	assert.Equal(t, "Salad", set.Incomplete[1].Recipe.Name)
	assert.Equal(t, 0, set.Incomplete[1].Score)
}

func TestComputeMatches_Properties(t *testing.T) {
	catalog := make([]domain.Recipe, 0, 40)
	pool := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i := 0; i < 40; i++ {
		n := 1 + i%len(pool)
		ings := make([]string, 0, n)
		for j := 0; j < n; j++ {
			ings = append(ings, pool[(i+j*3)%len(pool)])
		}
		catalog = append(catalog, recipe(fmt.Sprintf("r%02d", i), fmt.Sprintf("Dish %d", i%7), ings...))
	}
	selected := []string{"a", "c", "e"}

	first, err := ComputeMatches(selected, catalog, 0.5)
	require.NoError(t, err)

	t.Run("deterministic", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			again, err := ComputeMatches(selected, catalog, 0.5)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("partition", func(t *testing.T) {
		seen := make(map[string]int)
		for _, r := range first.All() {
			seen[r.Recipe.ID]++
		}
		assert.Len(t, seen, len(catalog))
		for id, n := range seen {
			assert.Equal(t, 1, n, "recipe %s classified more than once", id)
		}
	})

	t.Run("bounds", func(t *testing.T) {
		for _, r := range first.All() {
			assert.LessOrEqual(t, r.Available, r.Total)
			want := int(math.Floor(float64(r.Available)/float64(r.Total)*100 + 0.5))
			assert.Equal(t, want, r.Score)
			assert.Len(t, r.Missing, r.Total-r.Available)
		}
	})
}

func TestComputeMatches_FullRequirementSetIsComplete(t *testing.T) {
	r := recipe("x", "Pasta", "pasta", "tomato", "basil", "garlic")
	set, err := ComputeMatches(r.Ingredients, []domain.Recipe{r}, 0.9)
	require.NoError(t, err)
	require.Len(t, set.Complete, 1)
	assert.Equal(t, 100, set.Complete[0].Score)
}

func TestComputeMatches_NormalizesAndSkipsEmpty(t *testing.T) {
	catalog := []domain.Recipe{
		recipe("x", "Toast", " Bread ", "butter", "BREAD"),
		recipe("y", "Nothing"),
	}
	set, err := ComputeMatches([]string{"bread", "Butter"}, catalog, 0.75)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	require.Len(t, set.Complete, 1)
	assert.Equal(t, 2, set.Complete[0].Total)
}
