package games

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the service counters exported on /metrics.
type Metrics struct {
	gamesCreated    prometheus.Counter
	rolls           *prometheus.CounterVec
	summaries       *prometheus.CounterVec
	summaryDuration prometheus.Histogram
}

// NewMetrics registers the service collectors with reg. A nil registerer
// yields collectors that are counted but never exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gamesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "bowling",
			Name:      "games_created_total",
			Help:      "Number of games created.",
		}),
		rolls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bowling",
			Name:      "rolls_total",
			Help:      "Roll submissions by outcome.",
		}, []string{"outcome"}),
		summaries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bowling",
			Name:      "summaries_total",
			Help:      "Summary requests by result.",
		}, []string{"result"}),
		summaryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bowling",
			Name:      "summary_generation_seconds",
			Help:      "Time spent waiting on the summary generator.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}
