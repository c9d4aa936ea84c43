package board

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kanbase",
		Subsystem: "gateway",
		Name:      "actions_total",
		Help:      "Dispatched actions by name and outcome.",
	}, []string{"action", "outcome"})

	lockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kanbase",
		Subsystem: "gateway",
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting for the write lock.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	lockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kanbase",
		Subsystem: "gateway",
		Name:      "lock_timeouts_total",
		Help:      "Lock acquisitions abandoned after the wait window.",
	})
)

func observeAction(action string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	actionsTotal.WithLabelValues(action, outcome).Inc()
}
