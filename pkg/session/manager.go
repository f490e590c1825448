package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/aretw0/smartmeal/internal/logging"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/match"
	"github.com/aretw0/smartmeal/pkg/navigator"
	"github.com/aretw0/smartmeal/pkg/ports"
)

// NavigatorFactory builds the navigator for a session.
// The manager appends its own options (session ID, persistence hooks).
type NavigatorFactory func(sessionID string, opts ...navigator.Option) *navigator.Navigator

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It keeps live controllers in memory, persists their snapshots and rehydrates
// sessions created by other replicas. Lock entries are reference counted.
type Manager struct {
	store        ports.SessionStore
	searcher     *match.Searcher
	newNavigator NavigatorFactory

	mu       sync.Mutex             // Global lock for the maps
	locks    map[string]*lockEntry  // Map of active locks
	sessions map[string]*Controller // Live controllers

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	newID   func() string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIDGenerator replaces the random UUID session IDs.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, searcher *match.Searcher, factory NavigatorFactory, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		searcher:     searcher,
		newNavigator: factory,
		locks:        make(map[string]*lockEntry),
		sessions:     make(map[string]*Controller),
		lockTTL:      30 * time.Second,
		logger:       logging.NewNop(), // Default to no-op
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

func (m *Manager) build(sessionID string) *Controller {
	persist := func(ctx context.Context) {
		if err := m.Persist(context.WithoutCancel(ctx), sessionID); err != nil {
			m.logger.Warn("failed to persist session after recovery", "session_id", sessionID, "err", err)
		}
	}
	nav := m.newNavigator(sessionID,
		navigator.WithSessionID(sessionID),
		navigator.WithHooks(domain.LifecycleHooks{
			OnRecovery: func(ctx context.Context, _ *domain.RecoveryEvent) { persist(ctx) },
		}),
	)
	return NewController(sessionID, nav, m.searcher)
}

// Open returns the session with the given ID, creating it when it does not exist.
// An empty ID creates a new session with a generated ID.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Controller, error) {
	if sessionID == "" {
		sessionID = m.newID()
	}
	var ctrl *Controller
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		ctrl, err = m.lookup(ctx, sessionID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		ctrl = m.build(sessionID)
		snap := ctrl.Snapshot()
		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, sessionID, &snap); err != nil {
			_ = ctrl.Close()
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		m.register(ctrl)
		m.logger.Info("session opened", "session_id", sessionID)
		return nil
	})
	return ctrl, err
}

// Get returns a live session, rehydrating it from the store if needed.
// Returns domain.ErrSessionNotFound if the session does not exist.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Controller, error) {
	var ctrl *Controller
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		ctrl, err = m.lookup(ctx, sessionID)
		return err
	})
	return ctrl, err
}

// lookup must run under the session lock.
func (m *Manager) lookup(ctx context.Context, sessionID string) (*Controller, error) {
	m.mu.Lock()
	ctrl, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if ok {
		return ctrl, nil
	}

	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ctrl = m.build(sessionID)
	if err := ctrl.Restore(*snap); err != nil {
		_ = ctrl.Close()
		return nil, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
	}
	m.register(ctrl)
	m.logger.Debug("session rehydrated", "session_id", sessionID, "state", snap.State)
	return ctrl, nil
}

func (m *Manager) register(ctrl *Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[ctrl.ID()] = ctrl
}

// Persist saves the session's current snapshot.
func (m *Manager) Persist(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		ctrl, ok := m.sessions[sessionID]
		m.mu.Unlock()
		if !ok {
			return domain.ErrSessionNotFound
		}
		snap := ctrl.Snapshot()
		return m.store.Save(ctx, sessionID, &snap)
	})
}

// Do runs fn against a session and persists the result, even when fn fails.
// fn runs outside the session lock so the navigator can reject concurrent calls itself.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(ctx context.Context, c *Controller) error) error {
	ctrl, err := m.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	fnErr := fn(ctx, ctrl)
	if err := m.Persist(ctx, sessionID); err != nil {
		m.logger.Warn("failed to persist session", "session_id", sessionID, "err", err)
		if fnErr == nil {
			return err
		}
	}
	return fnErr
}

// Close stops the session and removes it from the store.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		ctrl, ok := m.sessions[sessionID]
		delete(m.sessions, sessionID)
		m.mu.Unlock()
		if ok {
			_ = ctrl.Close()
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Shutdown persists and closes every live session. The store keeps them for rehydration.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.Persist(ctx, id); err != nil {
			errs = append(errs, err)
		}
		m.mu.Lock()
		ctrl := m.sessions[id]
		delete(m.sessions, id)
		m.mu.Unlock()
		if ctrl != nil {
			_ = ctrl.Close()
		}
	}
	return errors.Join(errs...)
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
