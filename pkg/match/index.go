package match

import (
	"sort"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// Index is the ingredient to recipe adjacency of a sanitized catalog.
type Index struct {
	recipes []domain.Recipe
	names   map[string]string
	uses    map[string][]int
	edges   int
}

// IngredientUsage counts the recipes requiring one ingredient.
type IngredientUsage struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Recipes int    `json:"recipes"`
}

// Stats summarizes a catalog.
type Stats struct {
	Ingredients int               `json:"ingredients"`
	Recipes     int               `json:"recipes"`
	Edges       int               `json:"edges"`
	MostUsed    []IngredientUsage `json:"most_used"`
}

// NewIndex builds an index. Invalid recipes are dropped as in domain.SanitizeRecipes.
// Ingredients referenced by recipes but absent from the ingredient list are indexed too.
func NewIndex(ingredients []domain.Ingredient, recipes []domain.Recipe) *Index {
	clean, _ := domain.SanitizeRecipes(recipes)
	idx := &Index{
		recipes: clean,
		names:   make(map[string]string, len(ingredients)),
		uses:    make(map[string][]int),
	}
	for _, ing := range ingredients {
		id := domain.NormalizeID(ing.ID)
		if id == "" {
			continue
		}
		idx.names[id] = ing.Name
		if _, ok := idx.uses[id]; !ok {
			idx.uses[id] = nil
		}
	}
	for i, r := range clean {
		for _, ing := range r.Ingredients {
			idx.uses[ing] = append(idx.uses[ing], i)
			idx.edges++
		}
	}
	return idx
}

// RecipesUsing returns the recipes that require the ingredient, in catalog order.
func (x *Index) RecipesUsing(ingredient string) []domain.Recipe {
	positions := x.uses[domain.NormalizeID(ingredient)]
	out := make([]domain.Recipe, 0, len(positions))
	for _, i := range positions {
		out = append(out, x.recipes[i])
	}
	return out
}

// Recipes returns the sanitized catalog.
func (x *Index) Recipes() []domain.Recipe {
	return x.recipes
}

// Stats reports catalog size and the top most used ingredients.
// Ties are broken by ingredient ID.
func (x *Index) Stats(top int) Stats {
	usage := make([]IngredientUsage, 0, len(x.uses))
	for id, positions := range x.uses {
		usage = append(usage, IngredientUsage{ID: id, Name: x.names[id], Recipes: len(positions)})
	}
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].Recipes != usage[j].Recipes {
			return usage[i].Recipes > usage[j].Recipes
		}
		return usage[i].ID < usage[j].ID
	})
	if top >= 0 && top < len(usage) {
		usage = usage[:top]
	}
	return Stats{
		Ingredients: len(x.uses),
		Recipes:     len(x.recipes),
		Edges:       x.edges,
		MostUsed:    usage,
	}
}
