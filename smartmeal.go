package smartmeal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/smartmeal/internal/logging"
	"github.com/aretw0/smartmeal/internal/seed"
	"github.com/aretw0/smartmeal/pkg/adapters/file"
	"github.com/aretw0/smartmeal/pkg/adapters/memory"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/match"
	"github.com/aretw0/smartmeal/pkg/navigator"
	"github.com/aretw0/smartmeal/pkg/ports"
	"github.com/aretw0/smartmeal/pkg/session"
	"github.com/aretw0/smartmeal/pkg/tree"
)

// Engine wires the catalog, the decision tree, the match searcher and the
// session manager into one entry point.
type Engine struct {
	catalog  ports.CatalogProvider
	provider ports.TreeProvider
	local    *tree.Tree
	store    ports.SessionStore
	locker   ports.DistributedLocker

	searcher *match.Searcher
	sessions *session.Manager

	hooks      domain.LifecycleHooks
	navOpts    []navigator.Option
	searchOpts []match.Option
	logger     *slog.Logger
	closers    []func() error
}

// Option configures the Engine.
type Option func(*Engine)

// WithCatalog replaces the embedded seed catalog.
func WithCatalog(c ports.CatalogProvider) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithTree serves the guided interview from an in-process tree.
func WithTree(t *tree.Tree) Option {
	return func(e *Engine) {
		e.local = t
		e.provider = t
	}
}

// WithTreeProvider serves the guided interview from any provider, typically a remote client.
func WithTreeProvider(p ports.TreeProvider) Option {
	return func(e *Engine) {
		e.local = nil
		e.provider = p
	}
}

// WithStore persists session snapshots. Defaults to memory.
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLocker coordinates session access across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLifecycleHooks registers observability hooks on every navigator.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithNavigatorOptions appends options applied to every navigator.
func WithNavigatorOptions(opts ...navigator.Option) Option {
	return func(e *Engine) {
		e.navOpts = append(e.navOpts, opts...)
	}
}

// WithSearcherOptions appends options for the match searcher.
func WithSearcherOptions(opts ...match.Option) Option {
	return func(e *Engine) {
		e.searchOpts = append(e.searchOpts, opts...)
	}
}

// WithLogger sets a custom structured logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCloser registers a cleanup run by Close, e.g. a database handle backing the store.
func WithCloser(fn func() error) Option {
	return func(e *Engine) {
		e.closers = append(e.closers, fn)
	}
}

// New builds an Engine. Without options it serves the embedded seed catalog
// and decision tree with in-memory sessions.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}

	if e.catalog == nil {
		ingredients, recipes, err := file.ParseCatalog(seed.CatalogYAML, "yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to load seed catalog: %w", err)
		}
		e.catalog = memory.NewCatalog(ingredients, recipes)
	}
	if e.provider == nil {
		def, err := tree.Parse(seed.TreeYAML, "yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to parse seed tree: %w", err)
		}
		t, err := tree.New(def)
		if err != nil {
			return nil, fmt.Errorf("invalid seed tree: %w", err)
		}
		e.local, e.provider = t, t
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	e.searcher = match.NewSearcher(e.catalog, append([]match.Option{match.WithLogger(e.logger)}, e.searchOpts...)...)

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, e.searcher, e.NewNavigator, sessionOpts...)

	e.logger.Debug("engine ready", "local_tree", e.local != nil)
	return e, nil
}

// NewNavigator builds a navigator over the engine's tree provider with the
// engine's hooks and options. It matches session.NavigatorFactory.
func (e *Engine) NewNavigator(sessionID string, opts ...navigator.Option) *navigator.Navigator {
	all := make([]navigator.Option, 0, len(e.navOpts)+len(opts)+3)
	all = append(all,
		navigator.WithLogger(e.logger),
		navigator.WithSessionID(sessionID),
		navigator.WithHooks(e.hooks),
	)
	all = append(all, e.navOpts...)
	all = append(all, opts...)
	return navigator.New(e.provider, all...)
}

// Catalog returns the catalog provider.
func (e *Engine) Catalog() ports.CatalogProvider {
	return e.catalog
}

// TreeProvider returns the provider the navigators use.
func (e *Engine) TreeProvider() ports.TreeProvider {
	return e.provider
}

// LocalTree returns the in-process tree, or nil when the tree is remote.
func (e *Engine) LocalTree() *tree.Tree {
	return e.local
}

// Searcher returns the match searcher.
func (e *Engine) Searcher() *match.Searcher {
	return e.searcher
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Search runs a one-off search without a session.
func (e *Engine) Search(ctx context.Context, ingredients []string, threshold float64) (domain.MatchSet, error) {
	return e.searcher.Search(ctx, ingredients, threshold)
}

// Close persists and stops every live session, then runs the registered closers.
func (e *Engine) Close(ctx context.Context) error {
	errs := []error{e.sessions.Shutdown(ctx)}
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}
