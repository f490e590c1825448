package navigator

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// HealthCheck probes the provider without touching the navigation state.
// Probe errors and unknown statuses count as ERROR.
func (n *Navigator) HealthCheck(ctx context.Context) (domain.HealthStatus, error) {
	cctx, cancel := context.WithTimeout(ctx, n.callTimeout)
	defer cancel()

	status, err := n.provider.Health(cctx)
	if err == nil && !status.Valid() {
		err = fmt.Errorf("unknown health status %q", status)
	}
	if err != nil {
		status = domain.HealthError
		err = domain.NewError(domain.KindOf(err), "health", err)
	}
	n.recordHealth(ctx, status)
	return status, err
}

// Degraded reports whether the last probes crossed the degraded threshold.
func (n *Navigator) Degraded() bool {
	n.healthMu.Lock()
	defer n.healthMu.Unlock()
	return n.degraded
}

// LastHealth returns the most recent probe result, empty before the first probe.
func (n *Navigator) LastHealth() domain.HealthStatus {
	n.healthMu.Lock()
	defer n.healthMu.Unlock()
	return n.lastHealth
}

func (n *Navigator) recordHealth(ctx context.Context, status domain.HealthStatus) {
	var ev emitter

	n.healthMu.Lock()
	n.lastHealth = status
	if status == domain.HealthOK {
		n.consecutive = 0
	} else {
		n.consecutive++
	}
	if n.hooks.OnHealth != nil {
		e := &domain.HealthEvent{EventBase: n.base(domain.EventHealth), Status: status, Consecutive: n.consecutive}
		ev = append(ev, func(ctx context.Context) { n.hooks.OnHealth(ctx, e) })
	}
	changed := false
	switch {
	case !n.degraded && n.degradedAfter > 0 && n.consecutive >= n.degradedAfter:
		n.degraded, changed = true, true
		n.logger.Warn("tree provider degraded", "consecutive_failures", n.consecutive, "status", status)
	case n.degraded && status == domain.HealthOK:
		n.degraded, changed = false, true
		n.logger.Info("tree provider recovered")
	}
	if changed && n.hooks.OnDegraded != nil {
		e := &domain.DegradedEvent{EventBase: n.base(domain.EventDegraded), Degraded: n.degraded}
		ev = append(ev, func(ctx context.Context) { n.hooks.OnDegraded(ctx, e) })
	}
	n.healthMu.Unlock()

	ev.fire(ctx)
}

// MonitorHealth probes immediately and then on every health interval until ctx is done.
// Its signature fits a supervised service.
func (n *Navigator) MonitorHealth(ctx context.Context) error {
	ticker := time.NewTicker(n.healthInterval)
	defer ticker.Stop()

	for {
		if _, err := n.HealthCheck(ctx); err != nil {
			n.logger.Debug("health probe failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// StartHealthPolling runs MonitorHealth in the background until ctx is done or Close is called.
// Calling it twice has no effect.
func (n *Navigator) StartHealthPolling(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopPolling != nil || n.closed {
		return
	}
	pctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	n.stopPolling, n.pollDone = cancel, done
	go func() {
		defer close(done)
		_ = n.MonitorHealth(pctx)
	}()
}
