package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/smartmeal/pkg/domain"
)

const namespace = "smartmeal"

// Breaker states as exported by smartmeal_breaker_state.
const (
	breakerClosed   = 0
	breakerHalfOpen = 1
	breakerOpen     = 2
)

// Metrics holds every SmartMeal collector.
type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	recoveries  *prometheus.CounterVec
	probes      *prometheus.CounterVec
	degraded    prometheus.Gauge

	searches *prometheus.CounterVec
	matches  *prometheus.CounterVec

	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigator_transitions_total",
			Help:      "Navigator state transitions by source and target state.",
		}, []string{"from", "to"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigator_failures_total",
			Help:      "Failed navigator operations by operation and error kind.",
		}, []string{"op", "kind"}),
		recoveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigator_recoveries_total",
			Help:      "Automatic resets by outcome.",
		}, []string{"outcome"}),
		probes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_health_probes_total",
			Help:      "Tree provider health probes by reported status.",
		}, []string{"status"}),
		degraded: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "navigators_degraded",
			Help:      "Number of navigators currently reporting a degraded tree provider.",
		}),

		searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Catalog searches by operation and outcome.",
		}, []string{"op", "outcome"}),
		matches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_total",
			Help:      "Recipes returned by searches, by classification.",
		}, []string{"classification"}),

		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
		breakerTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state changes.",
		}, []string{"name", "from", "to"}),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns navigator lifecycle hooks feeding the navigator metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnFailure: func(_ context.Context, e *domain.FailureEvent) {
			m.failures.WithLabelValues(e.Op, string(e.Kind)).Inc()
		},
		OnRecovery: func(_ context.Context, e *domain.RecoveryEvent) {
			m.recoveries.WithLabelValues(outcome(e.Succeeded)).Inc()
		},
		OnHealth: func(_ context.Context, e *domain.HealthEvent) {
			m.probes.WithLabelValues(string(e.Status)).Inc()
		},
		OnDegraded: func(_ context.Context, e *domain.DegradedEvent) {
			if e.Degraded {
				m.degraded.Inc()
			} else {
				m.degraded.Dec()
			}
		},
	}
}

// ObserveSearch matches the match.WithObserver signature.
func (m *Metrics) ObserveSearch(op string, set domain.MatchSet, err error) {
	if err != nil {
		m.searches.WithLabelValues(op, string(domain.KindOf(err))).Inc()
		return
	}
	m.searches.WithLabelValues(op, "ok").Inc()
	m.matches.WithLabelValues(string(domain.Complete)).Add(float64(len(set.Complete)))
	m.matches.WithLabelValues(string(domain.NearComplete)).Add(float64(len(set.NearComplete)))
	m.matches.WithLabelValues(string(domain.Incomplete)).Add(float64(len(set.Incomplete)))
}

// ObserveBreaker matches the breaker.WithStateObserver signature.
func (m *Metrics) ObserveBreaker(name, from, to string) {
	m.breakerTransitions.WithLabelValues(name, from, to).Inc()
	switch to {
	case "open":
		m.breakerState.WithLabelValues(name).Set(breakerOpen)
	case "half-open":
		m.breakerState.WithLabelValues(name).Set(breakerHalfOpen)
	default:
		m.breakerState.WithLabelValues(name).Set(breakerClosed)
	}
}

// Middleware records request counts and latency, labelled by the chi route
// pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func outcome(ok bool) string {
	if ok {
		return "succeeded"
	}
	return "failed"
}
