package metrics

import (
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics. Empty keeps "damdice".
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem sets the subsystem for the results metrics. HTTP metrics
// always use "http" and process metrics always use "system".
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets for transform and HTTP
// latency. Buckets must be strictly increasing or they are ignored.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if increasing(buckets) {
			m.latencyBuckets = buckets
		}
	}
}

// WithFetchBuckets sets the millisecond buckets for feed downloads, which
// run orders of magnitude slower than a transform.
func WithFetchBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if increasing(buckets) {
			m.fetchBuckets = buckets
		}
	}
}

// WithPrometheusRegistry sets a custom Prometheus registry.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

func increasing(buckets []float64) bool {
	if len(buckets) == 0 {
		return false
	}
	return slices.IsSorted(buckets) && len(slices.Compact(slices.Clone(buckets))) == len(buckets)
}
