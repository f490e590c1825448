package breaker

import (
	"context"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/ports"
)

// TreeProvider guards a ports.TreeProvider with a circuit breaker.
type TreeProvider struct {
	next ports.TreeProvider
	cb   *gobreaker.CircuitBreaker[domain.TreeView]
}

var _ ports.TreeProvider = (*TreeProvider)(nil)

// NewTreeProvider wraps next. The breaker is named "tree-provider" unless WithName is given.
func NewTreeProvider(next ports.TreeProvider, opts ...Option) *TreeProvider {
	c := newConfig("tree-provider", opts)
	return &TreeProvider{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[domain.TreeView](c.settings()),
	}
}

func (p *TreeProvider) Start(ctx context.Context) (domain.TreeView, error) {
	view, err := p.cb.Execute(func() (domain.TreeView, error) {
		return p.next.Start(ctx)
	})
	return view, rejected("start", err)
}

func (p *TreeProvider) Navigate(ctx context.Context, nodeID string) (domain.TreeView, error) {
	view, err := p.cb.Execute(func() (domain.TreeView, error) {
		return p.next.Navigate(ctx, nodeID)
	})
	return view, rejected("navigate", err)
}

// Health reports ERROR while the circuit is open without probing the backend.
func (p *TreeProvider) Health(ctx context.Context) (domain.HealthStatus, error) {
	if p.cb.State() == gobreaker.StateOpen {
		return domain.HealthError, nil
	}
	return p.next.Health(ctx)
}

// State returns the circuit state: closed, half-open or open.
func (p *TreeProvider) State() string {
	return stateToString(p.cb.State())
}
