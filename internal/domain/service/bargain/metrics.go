package bargain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var (
	sessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bargain_sessions_completed_total",
		Help: "Bargain sessions finalized as completed, including exchange-budget exhaustion.",
	})

	sessionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bargain_sessions_failed_total",
		Help: "Bargain sessions finalized as failed.",
	})

	exchangesPerRun = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bargain_exchanges_per_run",
		Help:    "Full publisher/bargainer exchanges per negotiation run.",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	})
)
