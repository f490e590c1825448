package ports

import (
	"context"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// CatalogProvider supplies the read-only ingredient and recipe catalog.
// Implementations return the catalog as stored; normalization happens in the core.
type CatalogProvider interface {
	GetIngredients(ctx context.Context) ([]domain.Ingredient, error)
	GetRecipes(ctx context.Context) ([]domain.Recipe, error)
}
