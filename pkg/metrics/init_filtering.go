package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initFilterMetrics() {
	r.FilterContextsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "filtering_contexts_accessed_total",
			Help: "Filter contexts requested by resolvers",
		},
		[]string{"field"},
	)

	r.FilterBuildsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "filtering_builds_total",
			Help: "Filter literals built into trees",
		},
		[]string{"scope", "status"},
	)

	r.FilterBuildDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filtering_build_duration_seconds",
			Help:    "Time spent building a filter tree",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
		[]string{"scope"},
	)

	r.FilterNodesBuilt = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filtering_nodes_per_build",
			Help:    "Number of filter nodes produced per build",
			Buckets: []float64{1, 2, 5, 10, 50, 100, 1000},
		},
		[]string{"scope"},
	)

	r.FilterDecisionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "filtering_decisions_total",
			Help: "Automatic filtering decisions per field",
		},
		[]string{"field", "decision"},
	)

	r.FilterRejectedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "filtering_rejected_total",
			Help: "Filter arguments rejected before building",
		},
		[]string{"field", "reason"},
	)
}
