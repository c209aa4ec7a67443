package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphQLMetrics() {
	r.GraphQLRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "filtering_graphql_requests_total",
			Help: "GraphQL requests by endpoint and HTTP status",
		},
		[]string{"path", "status"},
	)

	r.GraphQLRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filtering_graphql_request_duration_seconds",
			Help:    "GraphQL request latency in seconds, filtering included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	r.GraphQLRequestFilters = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filtering_graphql_request_filters",
			Help:    "Filter contexts created while resolving one request",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 64, 256},
		},
		[]string{"path"},
	)

	r.GraphQLRequestsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "filtering_graphql_requests_in_flight",
			Help: "GraphQL requests being resolved",
		},
	)
}
