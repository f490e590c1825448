package breaker

import (
	"context"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/ports"
)

// CatalogProvider guards a ports.CatalogProvider with a circuit breaker.
type CatalogProvider struct {
	next ports.CatalogProvider
	cb   *gobreaker.CircuitBreaker[any]
}

var _ ports.CatalogProvider = (*CatalogProvider)(nil)

// NewCatalogProvider wraps next in a breaker named "catalog". An open circuit
// fails reads with domain.ErrConnectFailed without calling next.
func NewCatalogProvider(next ports.CatalogProvider, opts ...Option) *CatalogProvider {
	c := newConfig("catalog", opts)
	return &CatalogProvider{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](c.settings()),
	}
}

func (p *CatalogProvider) GetIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	ings, err := castResult[[]domain.Ingredient](p.cb.Execute(func() (any, error) {
		return p.next.GetIngredients(ctx)
	}))
	return ings, rejected("ingredients", err)
}

func (p *CatalogProvider) GetRecipes(ctx context.Context) ([]domain.Recipe, error) {
	recipes, err := castResult[[]domain.Recipe](p.cb.Execute(func() (any, error) {
		return p.next.GetRecipes(ctx)
	}))
	return recipes, rejected("recipes", err)
}

// State returns the circuit state: closed, half-open or open.
func (p *CatalogProvider) State() string {
	return stateToString(p.cb.State())
}
