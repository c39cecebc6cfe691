// Package metrics defines the Prometheus metrics exported by the
// monitoring core. All metrics are registered with the default registry
// and served on the /metrics endpoint.
//
// Naming follows Prometheus conventions:
//   - drivesentry_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PollCyclesTotal counts completed polling cycles.
	PollCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drivesentry_poll_cycles_total",
			Help: "Total number of completed device polling cycles.",
		},
	)

	// PollCycleDurationSeconds is a histogram of full-cycle duration.
	PollCycleDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drivesentry_poll_cycle_duration_seconds",
			Help:    "Duration of device polling cycles in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	// AssessmentsTotal counts device assessments by resulting risk level.
	AssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivesentry_assessments_total",
			Help: "Total device health assessments by overall risk level.",
		},
		[]string{"risk"},
	)

	// FailureEventsTotal counts generated failure events by kind and risk.
	FailureEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivesentry_failure_events_total",
			Help: "Total failure events generated by assessments.",
		},
		[]string{"kind", "risk"},
	)

	// NotificationsTotal counts delivery attempts by channel and outcome.
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivesentry_notifications_total",
			Help: "Total notification deliveries by channel and outcome.",
		},
		[]string{"channel", "status"},
	)

	// NotificationsSuppressedTotal counts suppressed notifications by reason.
	NotificationsSuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivesentry_notifications_suppressed_total",
			Help: "Total notifications suppressed before delivery, by reason.",
		},
		[]string{"reason"},
	)

	// DevicesMonitored is the number of devices covered by the last cycle.
	DevicesMonitored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "drivesentry_devices_monitored",
			Help: "Number of devices polled in the most recent cycle.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PollCyclesTotal,
		PollCycleDurationSeconds,
		AssessmentsTotal,
		FailureEventsTotal,
		NotificationsTotal,
		NotificationsSuppressedTotal,
		DevicesMonitored,
	)
}
