/*
Package observability exports SmartMeal runtime metrics to Prometheus.

A Metrics value owns its registry. Bind it to the running components through
their extension points:

	m := observability.New()
	nav := navigator.New(provider, navigator.WithHooks(m.Hooks()))
	searcher := match.NewSearcher(catalog, match.WithObserver(m.ObserveSearch))
	tree := breaker.NewTreeProvider(remote, breaker.WithStateObserver(m.ObserveBreaker))
	handler := m.Middleware(apiHandler)

and serve m.Handler() on /metrics.
*/
package observability
