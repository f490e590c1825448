package match

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCatalog struct {
	ingredients []domain.Ingredient
	recipes     []domain.Recipe
	err         error
	calls       atomic.Int32
}

func (c *countingCatalog) GetIngredients(context.Context) ([]domain.Ingredient, error) {
	c.calls.Add(1)
	return c.ingredients, c.err
}

func (c *countingCatalog) GetRecipes(context.Context) ([]domain.Recipe, error) {
	c.calls.Add(1)
	return c.recipes, c.err
}

func newCatalog() *countingCatalog {
	return &countingCatalog{
		ingredients: []domain.Ingredient{
			{ID: "tomato", Name: "Tomato"},
			{ID: "cheese", Name: "Cheese"},
			{ID: "bread", Name: "Bread"},
			{ID: "oats", Name: "Rolled oats"},
			{ID: "milk", Name: "Milk"},
		},
		recipes: []domain.Recipe{
			{ID: "a", Name: "Cheese toast", Ingredients: []string{"tomato", "cheese", "bread"}, Price: 12.5, Rating: 8},
			{ID: "b", Name: "Caprese", Ingredients: []string{"tomato", "cheese"}, Price: 10, Rating: 9},
			{ID: "c", Name: "Porridge", Ingredients: []string{"oats", "milk"}, Price: 6, Rating: 7},
			{ID: "broken", Name: "Broken"},
		},
	}
}

func TestSearcher_ValidatesBeforeCatalogAccess(t *testing.T) {
	catalog := newCatalog()
	s := NewSearcher(catalog)

	_, err := s.Search(context.Background(), nil, 0.75)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Search(context.Background(), []string{"tomato"}, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.MatchDishes(context.Background(), []string{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Zero(t, catalog.calls.Load(), "invalid calls must not touch the catalog")
}

func TestSearcher_CatalogUnavailable(t *testing.T) {
	catalog := newCatalog()
	catalog.err = errors.New("connection refused")
	s := NewSearcher(catalog)

	set, err := s.Search(context.Background(), []string{"tomato"}, 0.75)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.Zero(t, set.Len(), "no partial results")

	_, err = s.MatchDishes(context.Background(), []string{"tomato"})
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestSearcher_SearchUsesDefaultThreshold(t *testing.T) {
	var observed []error
	s := NewSearcher(newCatalog(),
		WithDefaultThreshold(0.6),
		WithObserver(func(op string, _ domain.MatchSet, err error) {
			assert.Equal(t, "search", op)
			observed = append(observed, err)
		}))

	set, err := s.Search(context.Background(), []string{"Tomato", "bread"}, 0)
	require.NoError(t, err)

	require.Len(t, set.NearComplete, 1)
	assert.Equal(t, "a", set.NearComplete[0].Recipe.ID)
	assert.Equal(t, 0.6, s.DefaultThreshold())
	assert.Equal(t, 3, set.Len(), "recipes without requirements are excluded")
	assert.Equal(t, []error{nil}, observed)
}

func TestSearcher_MatchDishes(t *testing.T) {
	s := NewSearcher(newCatalog())

	dishes, err := s.MatchDishes(context.Background(), []string{"Tomato", "Cheese", "Basil"})
	require.NoError(t, err)

	require.Len(t, dishes, 2)
	assert.Equal(t, domain.DishMatch{DishID: "b", Name: "Caprese", MatchPercent: 100, Price: 10, Rating: 9, Missing: []string{}}, dishes[0])
	assert.Equal(t, "a", dishes[1].DishID)
	assert.Equal(t, 67, dishes[1].MatchPercent)
	assert.Equal(t, []string{"bread"}, dishes[1].Missing)

	dishes, err = s.MatchDishes(context.Background(), []string{"rolled oats"})
	require.NoError(t, err)
	require.Len(t, dishes, 1, "names resolve to catalog ids")
	assert.Equal(t, "c", dishes[0].DishID)
	assert.Equal(t, 50, dishes[0].MatchPercent)
}

func TestSearcher_ConcurrentSearches(t *testing.T) {
	s := NewSearcher(newCatalog())
	want, err := s.Search(context.Background(), []string{"tomato", "cheese"}, 0.75)
	require.NoError(t, err)

	done := make(chan domain.MatchSet, 8)
	for i := 0; i < 8; i++ {
		go func() {
			got, _ := s.Search(context.Background(), []string{"tomato", "cheese"}, 0.75)
			done <- got
		}()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-done)
	}
}
