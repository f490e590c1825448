package memory

import (
	"context"
	"sync"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// Catalog implements ports.CatalogProvider over fixed slices.
// Safe for concurrent use; Replace swaps the whole catalog atomically.
type Catalog struct {
	mu          sync.RWMutex
	ingredients []domain.Ingredient
	recipes     []domain.Recipe
}

// NewCatalog creates a catalog from domain objects.
func NewCatalog(ingredients []domain.Ingredient, recipes []domain.Recipe) *Catalog {
	c := &Catalog{}
	c.Replace(ingredients, recipes)
	return c
}

// Replace swaps the catalog contents.
func (c *Catalog) Replace(ingredients []domain.Ingredient, recipes []domain.Recipe) {
	ing := append([]domain.Ingredient(nil), ingredients...)
	rec := make([]domain.Recipe, len(recipes))
	for i, r := range recipes {
		r.Ingredients = append([]string(nil), r.Ingredients...)
		rec[i] = r
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingredients, c.recipes = ing, rec
}

// GetIngredients returns a copy of the ingredients.
func (c *Catalog) GetIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Ingredient(nil), c.ingredients...), nil
}

// GetRecipes returns a copy of the recipes.
func (c *Catalog) GetRecipes(ctx context.Context) ([]domain.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Recipe, len(c.recipes))
	for i, r := range c.recipes {
		r.Ingredients = append([]string(nil), r.Ingredients...)
		out[i] = r
	}
	return out, nil
}
