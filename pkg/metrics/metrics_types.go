package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the filtering layer and the GraphQL
// endpoint that serves it
type Registry struct {
	// GraphQL Endpoint Metrics
	GraphQLRequestsTotal    *prometheus.CounterVec
	GraphQLRequestDuration  *prometheus.HistogramVec
	GraphQLRequestFilters   *prometheus.HistogramVec
	GraphQLRequestsInFlight prometheus.Gauge

	// Filter Metrics
	FilterContextsTotal  *prometheus.CounterVec
	FilterBuildsTotal    *prometheus.CounterVec
	FilterBuildDuration  *prometheus.HistogramVec
	FilterNodesBuilt     *prometheus.HistogramVec
	FilterDecisionsTotal *prometheus.CounterVec
	FilterRejectedTotal  *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)
