// Package cli builds SmartMeal runtimes from configuration for the command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/smartmeal"
	"github.com/aretw0/smartmeal/internal/config"
	"github.com/aretw0/smartmeal/pkg/adapters/badger"
	"github.com/aretw0/smartmeal/pkg/adapters/breaker"
	"github.com/aretw0/smartmeal/pkg/adapters/file"
	"github.com/aretw0/smartmeal/pkg/adapters/memory"
	"github.com/aretw0/smartmeal/pkg/adapters/redis"
	"github.com/aretw0/smartmeal/pkg/adapters/remote"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/match"
	"github.com/aretw0/smartmeal/pkg/navigator"
	"github.com/aretw0/smartmeal/pkg/observability"
	"github.com/aretw0/smartmeal/pkg/persistence/middleware"
	"github.com/aretw0/smartmeal/pkg/ports"
	"github.com/aretw0/smartmeal/pkg/tree"
)

// NewEngine wires an Engine from configuration. metrics may be nil.
func NewEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*smartmeal.Engine, error) {
	opts := []smartmeal.Option{
		smartmeal.WithLogger(logger),
		smartmeal.WithNavigatorOptions(
			navigator.WithRecoveryDelay(cfg.Navigator.RecoveryDelay),
			navigator.WithHealthInterval(cfg.Navigator.HealthInterval),
			navigator.WithDegradedAfter(cfg.Navigator.DegradedAfter),
			navigator.WithCallTimeout(cfg.Navigator.CallTimeout),
			navigator.WithPreflight(cfg.Navigator.PreflightHealth),
		),
		smartmeal.WithSearcherOptions(match.WithDefaultThreshold(cfg.Match.Threshold)),
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		opts = append(opts, smartmeal.WithLifecycleHooks(DebugHooks(logger)))
	}

	breakerOpts := []breaker.Option{
		breaker.WithMaxFailures(cfg.Breaker.MaxFailures),
		breaker.WithTimeout(cfg.Breaker.Timeout),
		breaker.WithLogger(logger),
	}
	if metrics != nil {
		opts = append(opts,
			smartmeal.WithLifecycleHooks(metrics.Hooks()),
			smartmeal.WithSearcherOptions(match.WithObserver(metrics.ObserveSearch)),
		)
		breakerOpts = append(breakerOpts, breaker.WithStateObserver(metrics.ObserveBreaker))
	}

	if cfg.Catalog.Path != "" {
		opts = append(opts, smartmeal.WithCatalog(breaker.NewCatalogProvider(file.NewCatalog(cfg.Catalog.Path), breakerOpts...)))
	}

	switch {
	case cfg.Tree.URL != "":
		client, err := remote.New(cfg.Tree.URL, remote.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("tree service: %w", err)
		}
		opts = append(opts, smartmeal.WithTreeProvider(breaker.NewTreeProvider(client, breakerOpts...)))
	case cfg.Tree.Path != "":
		t, err := tree.LoadFile(cfg.Tree.Path)
		if err != nil {
			return nil, fmt.Errorf("tree definition: %w", err)
		}
		opts = append(opts, smartmeal.WithTree(t))
	}

	storeOpts, err := storeOptions(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	opts = append(opts, storeOpts...)

	return smartmeal.New(opts...)
}

func storeOptions(ctx context.Context, cfg config.StoreConfig) ([]smartmeal.Option, error) {
	var (
		store ports.SessionStore
		extra []smartmeal.Option
	)
	switch cfg.Driver {
	case "", "memory":
		store = memory.NewStore()
	case "file":
		store = file.NewStore(cfg.Path)
	case "redis":
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, redis.WithTTL(cfg.TTL))
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("redis store at %s: %w", cfg.RedisAddr, err)
		}
		store = rs
		extra = append(extra, smartmeal.WithLocker(redis.NewLocker(rs.Client(), "smartmeal:")), smartmeal.WithCloser(rs.Close))
	case "badger":
		bs, err := badger.Open(cfg.Path, badger.WithTTL(cfg.TTL))
		if err != nil {
			return nil, fmt.Errorf("badger store at %q: %w", cfg.Path, err)
		}
		store = bs
		extra = append(extra, smartmeal.WithCloser(bs.Close))
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	if cfg.EncryptionKey != "" {
		keys, err := middleware.ParseKeys(cfg.EncryptionKey, cfg.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("store encryption: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(keys)
		if err != nil {
			return nil, fmt.Errorf("store encryption: %w", err)
		}
		store = middleware.Chain(store, mw)
	}
	return append([]smartmeal.Option{smartmeal.WithStore(store)}, extra...), nil
}

// DebugHooks logs every navigator event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("navigator transition", "session_id", e.SessionID, "op", e.Op, "from", e.From, "to", e.To, "node", e.NodeID)
		},
		OnFailure: func(ctx context.Context, e *domain.FailureEvent) {
			logger.Debug("navigator failure", "session_id", e.SessionID, "op", e.Op, "kind", e.Kind, "err", e.Err)
		},
		OnRecovery: func(ctx context.Context, e *domain.RecoveryEvent) {
			logger.Debug("navigator recovery", "session_id", e.SessionID, "succeeded", e.Succeeded)
		},
		OnHealth: func(ctx context.Context, e *domain.HealthEvent) {
			logger.Debug("tree health", "session_id", e.SessionID, "status", e.Status, "consecutive", e.Consecutive)
		},
		OnDegraded: func(ctx context.Context, e *domain.DegradedEvent) {
			logger.Debug("tree degraded", "session_id", e.SessionID, "degraded", e.Degraded)
		},
	}
}
