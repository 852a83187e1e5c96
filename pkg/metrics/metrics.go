package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus instruments for the search pipeline.
// Each instance carries its own registry so tests can build as many
// as they need without collisions.
type Metrics struct {
	Registry *prometheus.Registry

	SearchesTotal    prometheus.Counter
	PairsSkipped     prometheus.Counter
	FetchErrors      *prometheus.CounterVec
	CandidatesFound  prometheus.Histogram
	SearchDuration   prometheus.Histogram
	PartialSearches  prometheus.Counter
	RejectedRequests prometheus.Counter
}

// New creates the metric set under the given namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		SearchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "The total number of day-trip searches served",
		}),
		PairsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_skipped_total",
			Help:      "Destination/date pairs skipped because of provider failures",
		}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Provider fetch errors by kind",
		}, []string{"kind"}),
		CandidatesFound: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates_per_search",
			Help:      "Round-trip candidates returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		SearchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall-clock time spent per search",
			Buckets:   prometheus.DefBuckets,
		}),
		PartialSearches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_searches_total",
			Help:      "Searches that returned with skipped pairs or hit the deadline",
		}),
		RejectedRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_requests_total",
			Help:      "Search requests rejected by validation",
		}),
	}
}
