package match

import (
	"context"
	"log/slog"
	"sort"

	"github.com/aretw0/smartmeal/internal/logging"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/ports"
)

const (
	opSearch      = "search"
	opMatchDishes = "match_dishes"
)

// Searcher runs the Match Engine against a CatalogProvider.
// It holds no mutable state and is safe for concurrent use.
type Searcher struct {
	catalog   ports.CatalogProvider
	threshold float64
	logger    *slog.Logger
	observer  func(op string, d domain.MatchSet, err error)
}

// Option configures the Searcher.
type Option func(*Searcher)

// WithLogger configures a logger for the Searcher.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		s.logger = logger
	}
}

// WithDefaultThreshold sets the threshold used when callers pass zero.
func WithDefaultThreshold(threshold float64) Option {
	return func(s *Searcher) {
		s.threshold = threshold
	}
}

// WithObserver registers a callback invoked after every Search, successful or not.
func WithObserver(fn func(op string, set domain.MatchSet, err error)) Option {
	return func(s *Searcher) {
		s.observer = fn
	}
}

// NewSearcher creates a Searcher over the given catalog.
func NewSearcher(catalog ports.CatalogProvider, opts ...Option) *Searcher {
	s := &Searcher{
		catalog:   catalog,
		threshold: domain.DefaultThreshold,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultThreshold is the threshold used when a caller passes zero.
func (s *Searcher) DefaultThreshold() float64 {
	return s.threshold
}

// Search classifies the catalog against the selection.
// A zero threshold selects the default. Input is validated before the catalog is read.
func (s *Searcher) Search(ctx context.Context, selected []string, threshold float64) (set domain.MatchSet, err error) {
	defer func() {
		if s.observer != nil {
			s.observer(opSearch, set, err)
		}
	}()

	if threshold == 0 {
		threshold = s.threshold
	}
	sel, err := validate(selected, threshold)
	if err != nil {
		return domain.MatchSet{}, err
	}

	recipes, err := s.recipes(ctx, opSearch)
	if err != nil {
		return domain.MatchSet{}, err
	}

	set = compute(sel, recipes, threshold)
	s.logger.Debug("search completed",
		"selected", len(sel),
		"complete", len(set.Complete),
		"near_complete", len(set.NearComplete),
		"incomplete", len(set.Incomplete))
	return set, nil
}

// MatchDishes cross-checks an ingredient list, typically a terminal node's, against the
// real catalog. Ingredients are resolved against catalog ingredients by ID or display name.
// Only dishes sharing at least one ingredient are returned, best match first.
func (s *Searcher) MatchDishes(ctx context.Context, ingredients []string) ([]domain.DishMatch, error) {
	if len(normalizeSelection(ingredients)) == 0 {
		return nil, domain.Errorf(domain.KindInvalidInput, opMatchDishes, "empty ingredient list")
	}

	catalogIngredients, err := s.catalog.GetIngredients(ctx)
	if err != nil {
		return nil, domain.NewError(domain.KindCatalogUnavailable, opMatchDishes, err)
	}
	recipes, err := s.recipes(ctx, opMatchDishes)
	if err != nil {
		return nil, err
	}

	set := resolve(ingredients, catalogIngredients)
	dishes := make([]domain.DishMatch, 0)
	for _, r := range recipes {
		res := Evaluate(r, set, s.threshold)
		if res.Available == 0 {
			continue
		}
		dishes = append(dishes, domain.DishMatch{
			DishID:       r.ID,
			Name:         r.Name,
			MatchPercent: res.Score,
			Price:        r.Price,
			Rating:       r.Rating,
			Missing:      res.Missing,
		})
	}
	sort.SliceStable(dishes, func(i, j int) bool {
		if dishes[i].MatchPercent != dishes[j].MatchPercent {
			return dishes[i].MatchPercent > dishes[j].MatchPercent
		}
		if dishes[i].Name != dishes[j].Name {
			return dishes[i].Name < dishes[j].Name
		}
		return dishes[i].DishID < dishes[j].DishID
	})
	return dishes, nil
}

// Index builds a catalog Index from the provider.
func (s *Searcher) Index(ctx context.Context) (*Index, error) {
	recipes, err := s.recipes(ctx, "index")
	if err != nil {
		return nil, err
	}
	ingredients, err := s.catalog.GetIngredients(ctx)
	if err != nil {
		return nil, domain.NewError(domain.KindCatalogUnavailable, "index", err)
	}
	return NewIndex(ingredients, recipes), nil
}

func (s *Searcher) recipes(ctx context.Context, op string) ([]domain.Recipe, error) {
	raw, err := s.catalog.GetRecipes(ctx)
	if err != nil {
		return nil, domain.NewError(domain.KindCatalogUnavailable, op, err)
	}
	recipes, rejected := domain.SanitizeRecipes(raw)
	for _, r := range rejected {
		s.logger.Warn("recipe excluded from catalog", "err", r)
	}
	return recipes, nil
}

// resolve maps free-form ingredient names onto catalog IDs where possible.
func resolve(names []string, catalog []domain.Ingredient) map[string]struct{} {
	byName := make(map[string]string, 2*len(catalog))
	for _, ing := range catalog {
		id := domain.NormalizeID(ing.ID)
		byName[id] = id
		if n := domain.NormalizeID(ing.Name); n != "" {
			byName[n] = id
		}
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		n := domain.NormalizeID(name)
		if n == "" {
			continue
		}
		if id, ok := byName[n]; ok {
			n = id
		}
		set[n] = struct{}{}
	}
	return set
}
