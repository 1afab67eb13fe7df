package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search modes reported by SearchRequestsTotal.
const (
	ModeEmpty  = "empty"
	ModeRadius = "radius"
	ModeText   = "text"
	ModeError  = "error"
)

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attic",
			Name:      "search_requests_total",
			Help:      "Total number of searches by execution mode",
		},
		[]string{"mode"},
	)

	SearchRadiusExpansionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "attic",
			Name:      "search_radius_expansions_total",
			Help:      "Total number of radius widenings by the radius tried",
		},
		[]string{"radius"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "attic",
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
	)

	SearchLogDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "attic",
			Name:      "search_log_dropped_total",
			Help:      "Search log entries dropped because the writer pool was saturated",
		},
	)
)

func init() {
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRadiusExpansionsTotal)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(SearchLogDroppedTotal)
}
