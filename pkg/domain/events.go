package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventFailure    EventType = "failure"
	EventRecovery   EventType = "recovery"
	EventHealth     EventType = "health"
	EventDegraded   EventType = "degraded"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// TransitionEvent reports a navigator state change.
type TransitionEvent struct {
	EventBase
	From   NavigatorState `json:"from"`
	To     NavigatorState `json:"to"`
	NodeID string         `json:"node_id,omitempty"`
	Op     string         `json:"op"`
}

// FailureEvent reports a failed navigator operation.
type FailureEvent struct {
	EventBase
	Op   string    `json:"op"`
	Kind ErrorKind `json:"kind"`
	Err  error     `json:"-"`
}

// RecoveryEvent reports an automatic reset, fired or failed.
type RecoveryEvent struct {
	EventBase
	Succeeded bool `json:"succeeded"`
}

// HealthEvent reports one health probe.
type HealthEvent struct {
	EventBase
	Status HealthStatus `json:"status"`
	// Consecutive counts non-OK probes in a row, including this one.
	Consecutive int `json:"consecutive"`
}

// DegradedEvent reports entering or leaving the degraded-service condition.
type DegradedEvent struct {
	EventBase
	Degraded bool `json:"degraded"`
}

// LifecycleHooks defines callbacks for navigator observability.
// Every hook is optional.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnFailure    func(context.Context, *FailureEvent)
	OnRecovery   func(context.Context, *RecoveryEvent)
	OnHealth     func(context.Context, *HealthEvent)
	OnDegraded   func(context.Context, *DegradedEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnFailure:    chain(h.OnFailure, other.OnFailure),
		OnRecovery:   chain(h.OnRecovery, other.OnRecovery),
		OnHealth:     chain(h.OnHealth, other.OnHealth),
		OnDegraded:   chain(h.OnDegraded, other.OnDegraded),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
