package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/smartmeal/internal/logging"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/ports"
)

const (
	opStart    = "start"
	opNavigate = "navigate"
	opReset    = "reset"
	opRecovery = "recovery"
)

// Defaults for the navigator policy.
const (
	DefaultRecoveryDelay  = 3 * time.Second
	DefaultHealthInterval = 5 * time.Minute
	DefaultDegradedAfter  = 3
	DefaultCallTimeout    = 10 * time.Second
)

var errStaleRecovery = errors.New("recovery superseded")

// Navigator owns one session's traversal of a decision tree.
//
// All state-mutating operations (Start, Navigate, Reset and the automatic
// recovery) are single-flight: a call arriving while another one is in flight is
// rejected with domain.ErrInvalidState and has no side effect.
type Navigator struct {
	provider  ports.TreeProvider
	sessionID string
	logger    *slog.Logger
	hooks     domain.LifecycleHooks

	recoveryDelay  time.Duration
	healthInterval time.Duration
	degradedAfter  int
	callTimeout    time.Duration
	preflight      bool

	mu          sync.Mutex
	state       domain.NavigatorState
	node        *domain.TreeNode
	path        []string
	lastErr     *domain.Error
	recovery    *time.Timer
	recoveryGen uint64
	updatedAt   time.Time
	closed      bool
	stopPolling context.CancelFunc
	pollDone    chan struct{}

	healthMu    sync.Mutex
	consecutive int
	degraded    bool
	lastHealth  domain.HealthStatus
}

// Option configures the Navigator.
type Option func(*Navigator)

// WithLogger configures a logger for the Navigator.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) {
		n.logger = logger
	}
}

// WithSessionID tags snapshots, events and logs with the owning session.
func WithSessionID(id string) Option {
	return func(n *Navigator) {
		n.sessionID = id
	}
}

// WithHooks registers lifecycle hooks. Multiple calls are merged.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(n *Navigator) {
		n.hooks = n.hooks.Merge(h)
	}
}

// WithRecoveryDelay sets the delay before an automatic reset after a failure.
func WithRecoveryDelay(d time.Duration) Option {
	return func(n *Navigator) {
		n.recoveryDelay = d
	}
}

// WithHealthInterval sets the health polling period.
func WithHealthInterval(d time.Duration) Option {
	return func(n *Navigator) {
		n.healthInterval = d
	}
}

// WithDegradedAfter sets how many consecutive non-OK probes signal a degraded service.
func WithDegradedAfter(count int) Option {
	return func(n *Navigator) {
		n.degradedAfter = count
	}
}

// WithCallTimeout bounds every provider call.
func WithCallTimeout(d time.Duration) Option {
	return func(n *Navigator) {
		n.callTimeout = d
	}
}

// WithPreflight enables a synchronous health probe before start and navigate.
// An ERROR probe fails the operation with domain.ErrConnectFailed without calling the provider.
func WithPreflight(enabled bool) Option {
	return func(n *Navigator) {
		n.preflight = enabled
	}
}

// New creates an idle Navigator over the given provider.
func New(provider ports.TreeProvider, opts ...Option) *Navigator {
	n := &Navigator{
		provider:       provider,
		logger:         logging.NewNop(),
		recoveryDelay:  DefaultRecoveryDelay,
		healthInterval: DefaultHealthInterval,
		degradedAfter:  DefaultDegradedAfter,
		callTimeout:    DefaultCallTimeout,
		state:          domain.StateIdle,
		updatedAt:      time.Now(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With("session_id", n.sessionID)
	return n
}

// SessionID returns the owning session, if any.
func (n *Navigator) SessionID() string {
	return n.sessionID
}

// Start loads the root. Valid from Idle and Error.
func (n *Navigator) Start(ctx context.Context) (domain.TreeView, error) {
	return n.run(ctx, opStart, "", 0)
}

// Navigate moves to one of the current node's options.
// Valid from Ready, and from Error while a previous node is still held.
func (n *Navigator) Navigate(ctx context.Context, childID string) (domain.TreeView, error) {
	return n.run(ctx, opNavigate, childID, 0)
}

// Reset reloads the root and truncates the path to it. Valid from any state but Loading.
func (n *Navigator) Reset(ctx context.Context) (domain.TreeView, error) {
	return n.run(ctx, opReset, "", 0)
}

// State returns the current state.
func (n *Navigator) State() domain.NavigatorState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Snapshot returns a copy of the session state.
func (n *Navigator) Snapshot() domain.SessionSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	snap := domain.SessionSnapshot{
		SessionID:       n.sessionID,
		State:           n.state,
		Path:            append([]string{}, n.path...),
		RecoveryPending: n.recovery != nil,
		UpdatedAt:       n.updatedAt,
	}
	if n.node != nil {
		node := cloneNode(*n.node)
		snap.Node = &node
		snap.Terminal = node.Terminal()
	}
	if n.lastErr != nil {
		snap.LastError = n.lastErr.Kind
		snap.LastErrorText = n.lastErr.Error()
	}
	return snap
}

// Restore rehydrates an idle navigator from a persisted snapshot.
// Ready, Terminal and Loading are derived from the stored node, so a snapshot
// taken mid-flight or one without a node settles to the last node, or Idle.
func (n *Navigator) Restore(snap domain.SessionSnapshot) error {
	switch snap.State {
	case domain.StateIdle, domain.StateLoading, domain.StateReady, domain.StateTerminal, domain.StateError:
	default:
		return domain.Errorf(domain.KindInvalidInput, "restore", "unknown state %q", snap.State)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != domain.StateIdle || n.closed {
		return domain.Errorf(domain.KindInvalidState, "restore", "navigator is %s", n.state)
	}
	if snap.State == domain.StateIdle {
		return nil
	}
	if snap.Node != nil {
		node := cloneNode(*snap.Node)
		n.node = &node
	}
	n.state = snap.State
	if n.state != domain.StateError {
		n.state = settledState(n.node)
	}
	if n.node != nil {
		n.path = append([]string(nil), snap.Path...)
	}
	if snap.LastError != "" && n.state == domain.StateError {
		n.lastErr = domain.NewError(snap.LastError, "restore", errors.New(snap.LastErrorText))
	}
	if !snap.UpdatedAt.IsZero() {
		n.updatedAt = snap.UpdatedAt
	}
	if snap.RecoveryPending && n.state == domain.StateError {
		n.scheduleRecoveryLocked()
	}
	return nil
}

// Close cancels pending recovery and health polling. Further mutating calls fail
// with domain.ErrInvalidState.
func (n *Navigator) Close() error {
	n.mu.Lock()
	n.closed = true
	n.cancelRecoveryLocked()
	stop, done := n.stopPolling, n.pollDone
	n.stopPolling = nil
	n.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	return nil
}

func settledState(node *domain.TreeNode) domain.NavigatorState {
	switch {
	case node == nil:
		return domain.StateIdle
	case node.Terminal():
		return domain.StateTerminal
	default:
		return domain.StateReady
	}
}

// emitter collects hook invocations so they run after the lock is released.
type emitter []func(context.Context)

func (e emitter) fire(ctx context.Context) {
	for _, fn := range e {
		fn(ctx)
	}
}

func (n *Navigator) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, SessionID: n.sessionID}
}

func (n *Navigator) transitionLocked(ev *emitter, op string, to domain.NavigatorState) {
	from := n.state
	n.state = to
	n.updatedAt = time.Now()
	if from == to || n.hooks.OnTransition == nil {
		return
	}
	e := &domain.TransitionEvent{EventBase: n.base(domain.EventTransition), From: from, To: to, Op: op}
	if n.node != nil {
		e.NodeID = n.node.ID
	}
	*ev = append(*ev, func(ctx context.Context) { n.hooks.OnTransition(ctx, e) })
}

func (n *Navigator) failureEvent(ev *emitter, op string, err *domain.Error) {
	if n.hooks.OnFailure == nil {
		return
	}
	e := &domain.FailureEvent{EventBase: n.base(domain.EventFailure), Op: op, Kind: err.Kind, Err: err}
	*ev = append(*ev, func(ctx context.Context) { n.hooks.OnFailure(ctx, e) })
}

func (n *Navigator) recoveryEvent(ev *emitter, succeeded bool) {
	if n.hooks.OnRecovery == nil {
		return
	}
	e := &domain.RecoveryEvent{EventBase: n.base(domain.EventRecovery), Succeeded: succeeded}
	*ev = append(*ev, func(ctx context.Context) { n.hooks.OnRecovery(ctx, e) })
}

// admitLocked checks whether op may run from the current state.
func (n *Navigator) admitLocked(op string) error {
	if n.closed {
		return domain.Errorf(domain.KindInvalidState, op, "navigator closed")
	}
	if n.state == domain.StateLoading {
		return domain.Errorf(domain.KindInvalidState, op, "operation already in flight")
	}
	switch op {
	case opStart:
		if n.state != domain.StateIdle && n.state != domain.StateError {
			return domain.Errorf(domain.KindInvalidState, op, "cannot start from %s", n.state)
		}
	case opNavigate:
		ok := n.node != nil && (n.state == domain.StateReady || (n.state == domain.StateError && !n.node.Terminal()))
		if !ok {
			return domain.Errorf(domain.KindInvalidState, op, "cannot navigate from %s", n.state)
		}
	}
	return nil
}

func (n *Navigator) run(ctx context.Context, op, childID string, gen uint64) (domain.TreeView, error) {
	var ev emitter
	n.mu.Lock()
	if op == opRecovery && (gen != n.recoveryGen || n.recovery == nil) {
		n.mu.Unlock()
		return domain.TreeView{}, errStaleRecovery
	}
	if err := n.admitLocked(op); err != nil {
		de := err.(*domain.Error)
		n.failureEvent(&ev, op, de)
		n.mu.Unlock()
		n.logger.Debug("operation rejected", "op", op, "state", n.State(), "err", de)
		ev.fire(ctx)
		return domain.TreeView{}, de
	}

	n.cancelRecoveryLocked()

	if op == opNavigate && !n.node.HasOption(childID) {
		err := domain.Errorf(domain.KindNotFound, op, "%s is not an option of %s", childID, n.node.ID)
		n.failLocked(&ev, op, err)
		n.mu.Unlock()
		n.logger.Warn("navigation to unknown option", "node", childID)
		ev.fire(ctx)
		return domain.TreeView{}, err
	}

	var current domain.TreeNode
	if n.node != nil {
		current = *n.node
	}
	n.transitionLocked(&ev, op, domain.StateLoading)
	n.mu.Unlock()
	ev.fire(ctx)
	ev = ev[:0]

	view, callErr := n.call(ctx, op, childID, current)

	n.mu.Lock()
	if callErr != nil {
		de := classify(op, callErr)
		n.failLocked(&ev, op, de)
		if op == opRecovery {
			n.recoveryEvent(&ev, false)
		}
		n.mu.Unlock()
		n.logger.Error("tree operation failed", "op", op, "kind", de.Kind, "err", callErr)
		ev.fire(ctx)
		return domain.TreeView{}, de
	}

	node := cloneNode(view.Node)
	n.node = &node
	n.lastErr = nil
	if op == opNavigate {
		n.path = append(append([]string{}, n.path...), node.Title)
	} else {
		n.path = []string{node.Title}
	}
	n.transitionLocked(&ev, op, settledState(n.node))
	if op == opRecovery {
		n.recoveryEvent(&ev, true)
	}
	out := domain.TreeView{Node: cloneNode(node), Path: append([]string{}, n.path...)}
	n.mu.Unlock()

	n.logger.Debug("tree operation completed", "op", op, "node", node.ID, "depth", len(out.Path))
	ev.fire(ctx)
	return out, nil
}

// failLocked moves to Error and schedules recovery when the policy asks for it.
func (n *Navigator) failLocked(ev *emitter, op string, err *domain.Error) {
	n.lastErr = err
	if op == opStart {
		n.node = nil
		n.path = nil
	}
	n.transitionLocked(ev, op, domain.StateError)
	n.failureEvent(ev, op, err)
	if op == opStart || op == opNavigate {
		n.scheduleRecoveryLocked()
	}
}

func (n *Navigator) call(ctx context.Context, op, childID string, current domain.TreeNode) (domain.TreeView, error) {
	if n.preflight && op != opRecovery {
		status, _ := n.HealthCheck(ctx)
		switch status {
		case domain.HealthError:
			return domain.TreeView{}, domain.Errorf(domain.KindConnectFailed, op, "health check reported %s", status)
		case domain.HealthWarn:
			n.logger.Warn("tree provider reports degraded health", "op", op)
		}
	}

	cctx, cancel := context.WithTimeout(ctx, n.callTimeout)
	defer cancel()

	var (
		view domain.TreeView
		err  error
	)
	if op == opNavigate {
		view, err = n.provider.Navigate(cctx, childID)
	} else {
		view, err = n.provider.Start(cctx)
	}
	if err != nil {
		return view, err
	}
	if err := view.Node.Validate(); err != nil {
		return view, domain.NewError(domain.KindServerError, op, err)
	}
	if op == opNavigate && view.Node.ID != childID {
		return view, domain.Errorf(domain.KindServerError, op, "provider returned %s for %s from %s", view.Node.ID, childID, current.ID)
	}
	return view, nil
}

// classify maps a provider failure to the kind reported for op.
func classify(op string, err error) *domain.Error {
	kind := domain.KindOf(err)
	cause := err
	var de *domain.Error
	if errors.As(err, &de) && de.Err != nil {
		cause = de.Err
	}
	switch op {
	case opStart, opReset, opRecovery:
		kind = domain.KindConnectFailed
	case opNavigate:
		switch kind {
		case domain.KindNotFound, domain.KindTimeout, domain.KindConnectFailed:
		default:
			kind = domain.KindServerError
		}
	}
	return &domain.Error{Kind: kind, Op: op, Err: cause}
}

func (n *Navigator) scheduleRecoveryLocked() {
	if n.closed || n.recoveryDelay <= 0 {
		return
	}
	n.cancelRecoveryLocked()
	gen := n.recoveryGen
	n.recovery = time.AfterFunc(n.recoveryDelay, func() {
		_, err := n.run(context.Background(), opRecovery, "", gen)
		if err != nil && !errors.Is(err, errStaleRecovery) {
			n.logger.Warn("automatic recovery failed", "err", err)
		}
	})
	n.logger.Debug("recovery scheduled", "delay", n.recoveryDelay.String())
}

// cancelRecoveryLocked invalidates any pending recovery, even one whose timer already fired.
func (n *Navigator) cancelRecoveryLocked() {
	n.recoveryGen++
	if n.recovery != nil {
		n.recovery.Stop()
		n.recovery = nil
	}
}

func cloneNode(n domain.TreeNode) domain.TreeNode {
	n.Options = append([]domain.Option(nil), n.Options...)
	n.Ingredients = append([]string(nil), n.Ingredients...)
	return n
}

// String implements fmt.Stringer for debugging.
func (n *Navigator) String() string {
	s := n.Snapshot()
	return fmt.Sprintf("navigator(%s %s path=%v)", s.SessionID, s.State, s.Path)
}
