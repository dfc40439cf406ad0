/*
Package observability exposes engine activity as Prometheus metrics.

Metrics are collected through lifecycle hooks, so they can be combined with any
other hook set:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	eng, err := stategraph.Compile(b, stategraph.WithLifecycleHooks(m.Hooks()))
*/
package observability
