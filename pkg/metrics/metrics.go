package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initGraphQLMetrics()
	r.initFilterMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordGraphQLRequest records one GraphQL request and the number of filter
// contexts its resolvers created
func (r *Registry) RecordGraphQLRequest(path, status string, filters int, duration time.Duration) {
	r.GraphQLRequestsTotal.WithLabelValues(path, status).Inc()
	r.GraphQLRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
	r.GraphQLRequestFilters.WithLabelValues(path).Observe(float64(filters))
}

// IncRequestsInFlight marks a request as started
func (r *Registry) IncRequestsInFlight() {
	r.GraphQLRequestsInFlight.Inc()
}

// DecRequestsInFlight marks a request as finished
func (r *Registry) DecRequestsInFlight() {
	r.GraphQLRequestsInFlight.Dec()
}

// RecordFilterBuild records one literal-to-tree build
func (r *Registry) RecordFilterBuild(scope, status string, duration time.Duration, nodes int) {
	r.FilterBuildsTotal.WithLabelValues(scope, status).Inc()
	r.FilterBuildDuration.WithLabelValues(scope).Observe(duration.Seconds())
	if status == "ok" {
		r.FilterNodesBuilt.WithLabelValues(scope).Observe(float64(nodes))
	}
}

// RecordFilterContextAccess counts resolvers that asked for their filter context
func (r *Registry) RecordFilterContextAccess(field string) {
	r.FilterContextsTotal.WithLabelValues(field).Inc()
}

// RecordFilterDecision counts whether automatic filtering ran for a field
func (r *Registry) RecordFilterDecision(field string, skipped bool) {
	decision := "applied"
	if skipped {
		decision = "skipped"
	}
	r.FilterDecisionsTotal.WithLabelValues(field, decision).Inc()
}

// RecordFilterRejected counts filter arguments refused before building
func (r *Registry) RecordFilterRejected(field, reason string) {
	r.FilterRejectedTotal.WithLabelValues(field, reason).Inc()
}
