// Package breaker decorates providers with a circuit breaker so a failing
// remote tree service or catalog fails fast instead of stalling every session.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/aretw0/smartmeal/internal/logging"
	"github.com/aretw0/smartmeal/pkg/domain"
)

// Breaker defaults, used when no option overrides them.
const (
	DefaultMaxFailures = 5
	DefaultTimeout     = 30 * time.Second
)

type config struct {
	name        string
	maxFailures uint32
	timeout     time.Duration
	logger      *slog.Logger
	observer    func(name, from, to string)
}

// Option configures a breaker-wrapped provider.
type Option func(*config)

// WithName labels the breaker in logs and metrics.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithMaxFailures opens the circuit after n consecutive failures.
func WithMaxFailures(n uint32) Option {
	return func(c *config) {
		if n > 0 {
			c.maxFailures = n
		}
	}
}

// WithTimeout sets how long the circuit stays open before a trial call.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger logs circuit state changes.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStateObserver is called on every circuit state change.
func WithStateObserver(fn func(name, from, to string)) Option {
	return func(c *config) { c.observer = fn }
}

func newConfig(name string, opts []Option) *config {
	c := &config{
		name:        name,
		maxFailures: DefaultMaxFailures,
		timeout:     DefaultTimeout,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) settings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        c.name,
		MaxRequests: 1,
		Timeout:     c.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.maxFailures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("circuit breaker state change", "breaker", name, "from", stateToString(from), "to", stateToString(to))
			if c.observer != nil {
				c.observer(name, stateToString(from), stateToString(to))
			}
		},
	}
}

// countsAsSuccess keeps caller mistakes and cancellations from tripping the circuit.
// Only failures that say something about the backend's health count.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	switch domain.KindOf(err) {
	case domain.KindNotFound, domain.KindInvalidInput, domain.KindInvalidState:
		return true
	}
	return false
}

// rejected converts a breaker rejection into ConnectFailed; other errors pass through.
func rejected(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.NewError(domain.KindConnectFailed, op, err)
	}
	return err
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
