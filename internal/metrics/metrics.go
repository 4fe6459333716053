package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	consoleRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabledesk",
			Name:      "console_requests_total",
			Help:      "Console HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	backendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabledesk",
			Name:      "backend_calls_total",
			Help:      "Outbound backend API calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	snapshotRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabledesk",
			Name:      "snapshot_refreshes_total",
			Help:      "Reservation snapshot refreshes by trigger and outcome.",
		},
		[]string{"trigger", "outcome"},
	)

	snapshotSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tabledesk",
			Name:      "snapshot_reservations",
			Help:      "Number of reservations in the current snapshot.",
		},
	)

	snapshotAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tabledesk",
			Name:      "snapshot_age_seconds",
			Help:      "Seconds since the current snapshot was fetched.",
		},
	)

	actionDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tabledesk",
			Name:      "action_dispatches_total",
			Help:      "Row actions (sms, receipt, calendar-sync, ...) by outcome.",
		},
		[]string{"action", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			consoleRequests,
			backendCalls,
			snapshotRefreshes,
			snapshotSize,
			snapshotAge,
			actionDispatches,
		)
	})
}

// IncConsoleRequest increments the console request counter.
func IncConsoleRequest(endpoint, status string) {
	consoleRequests.WithLabelValues(endpoint, status).Inc()
}

// IncBackendCall increments the backend call counter.
func IncBackendCall(operation, outcome string) {
	backendCalls.WithLabelValues(operation, outcome).Inc()
}

// IncSnapshotRefresh records a refresh attempt.
func IncSnapshotRefresh(trigger, outcome string) {
	snapshotRefreshes.WithLabelValues(trigger, outcome).Inc()
}

// SetSnapshotSize records the current snapshot size.
func SetSnapshotSize(n int) {
	snapshotSize.Set(float64(n))
}

// SetSnapshotAge records how stale the current snapshot is.
func SetSnapshotAge(age time.Duration) {
	snapshotAge.Set(age.Seconds())
}

// IncAction records a row-action dispatch outcome.
func IncAction(action, outcome string) {
	actionDispatches.WithLabelValues(action, outcome).Inc()
}
