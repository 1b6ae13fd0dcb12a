package notifications

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickler_notification_runs_total",
			Help: "Expiry scan runs by outcome.",
		},
		[]string{"outcome"},
	)

	candidatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickler_notification_candidates_total",
		Help: "Files selected by expiry scans.",
	})

	notifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickler_notification_notified_total",
		Help: "Expiry notifications sent and recorded.",
	})

	skippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickler_notification_skipped_total",
		Help: "Candidates already notified or deleted when dispatched.",
	})

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickler_notification_failures_total",
			Help: "Per-file dispatch failures by reason.",
		},
		[]string{"reason"},
	)

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tickler_notification_run_duration_seconds",
		Help:    "Duration of expiry scan runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})
)

func observe(m *Manifest) {
	candidatesTotal.Add(float64(len(m.Candidates)))
	notifiedTotal.Add(float64(len(m.Notified)))
	skippedTotal.Add(float64(len(m.Skipped)))
	for _, f := range m.Failures {
		failuresTotal.WithLabelValues(string(f.Reason)).Inc()
	}
	runDuration.Observe(m.Duration.Seconds())

	outcome := "completed"
	switch {
	case m.DryRun:
		outcome = "dry_run"
	case m.Cancelled:
		outcome = "cancelled"
	}
	runsTotal.WithLabelValues(outcome).Inc()
}
