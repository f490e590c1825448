package session

import (
	"context"
	"sync"

	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/match"
	"github.com/aretw0/smartmeal/pkg/navigator"
)

// Controller bridges one user's Navigator with the Match Engine.
// It owns the session's pantry and the last successful match result.
type Controller struct {
	id       string
	nav      *navigator.Navigator
	searcher *match.Searcher

	mu         sync.Mutex
	pantry     *domain.Pantry
	lastMatch  *domain.MatchSet
	lastDishes []domain.DishMatch
}

// NewController creates a Controller with an empty pantry.
func NewController(id string, nav *navigator.Navigator, searcher *match.Searcher) *Controller {
	return &Controller{
		id:       id,
		nav:      nav,
		searcher: searcher,
		pantry:   domain.NewPantry(),
	}
}

// ID returns the session ID.
func (c *Controller) ID() string {
	return c.id
}

// Navigator returns the session's navigator.
func (c *Controller) Navigator() *navigator.Navigator {
	return c.nav
}

// Start begins the guided interview.
func (c *Controller) Start(ctx context.Context) (domain.TreeView, error) {
	return c.nav.Start(ctx)
}

// Navigate chooses an option of the current node.
func (c *Controller) Navigate(ctx context.Context, childID string) (domain.TreeView, error) {
	return c.nav.Navigate(ctx, childID)
}

// Reset returns the interview to the root.
func (c *Controller) Reset(ctx context.Context) (domain.TreeView, error) {
	return c.nav.Reset(ctx)
}

// Pantry returns a copy of the session pantry.
func (c *Controller) Pantry() *domain.Pantry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pantry.Clone()
}

// UpdatePantry applies fn to a copy of the pantry and keeps it only if fn succeeds.
func (c *Controller) UpdatePantry(fn func(p *domain.Pantry) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.pantry.Clone()
	if err := fn(next); err != nil {
		return err
	}
	c.pantry = next
	return nil
}

// Search matches the pantry selection against the catalog.
// The last result is replaced only on success.
func (c *Controller) Search(ctx context.Context, threshold float64) (domain.MatchSet, error) {
	return c.SearchIngredients(ctx, c.Pantry().SelectedIDs(), threshold)
}

// SearchIngredients matches an explicit selection against the catalog.
func (c *Controller) SearchIngredients(ctx context.Context, selected []string, threshold float64) (domain.MatchSet, error) {
	set, err := c.searcher.Search(ctx, selected, threshold)
	if err != nil {
		return domain.MatchSet{}, err
	}
	c.mu.Lock()
	c.lastMatch = &set
	c.mu.Unlock()
	return set, nil
}

// MatchTerminal cross-checks the ingredients of the reached recommendation against
// the real catalog. It fails with domain.ErrInvalidState unless the navigator is terminal.
func (c *Controller) MatchTerminal(ctx context.Context) ([]domain.DishMatch, error) {
	snap := c.nav.Snapshot()
	if snap.State != domain.StateTerminal || snap.Node == nil {
		return nil, domain.Errorf(domain.KindInvalidState, "match_terminal", "navigator is %s", snap.State)
	}
	dishes, err := c.searcher.MatchDishes(ctx, snap.Node.Ingredients)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.lastDishes = dishes
	c.mu.Unlock()
	return dishes, nil
}

// LastMatch returns the last successful search, or nil.
func (c *Controller) LastMatch() *domain.MatchSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMatch
}

// LastDishes returns the last successful terminal cross-check, or nil.
func (c *Controller) LastDishes() []domain.DishMatch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDishes
}

// Snapshot captures the whole session as one serializable value.
func (c *Controller) Snapshot() domain.SessionSnapshot {
	snap := c.nav.Snapshot()
	snap.SessionID = c.id
	c.mu.Lock()
	defer c.mu.Unlock()
	snap.Pantry = c.pantry.Clone()
	snap.LastMatch = c.lastMatch
	return snap
}

// Restore rehydrates the controller and its navigator from a snapshot.
func (c *Controller) Restore(snap domain.SessionSnapshot) error {
	if err := c.nav.Restore(snap); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if snap.Pantry != nil {
		c.pantry = snap.Pantry.Clone()
	}
	c.lastMatch = snap.LastMatch
	return nil
}

// Close releases the navigator's timers.
func (c *Controller) Close() error {
	return c.nav.Close()
}
