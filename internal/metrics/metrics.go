package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "office_booking"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "status"},
	)

	reservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_attempts_total",
			Help:      "Reservation creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	lockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "office_lock_wait_seconds",
			Help:      "Time spent waiting for the per-office reservation lock.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
	)

	leaseLost = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "office_lock_lease_lost_total",
			Help:      "Locks whose lease expired before the holder released them.",
		},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by kind and result.",
		},
		[]string{"kind", "result"},
	)
)

// Reservation outcomes.
const (
	OutcomeCreated     = "created"
	OutcomeConflict    = "conflict"
	OutcomeLockTimeout = "lock_timeout"
	OutcomeRejected    = "rejected"
	OutcomeError       = "error"
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservations, lockWait, leaseLost, notifications)
	})
}

// IncHTTP counts a finished request.
func IncHTTP(route, status string) {
	httpRequests.WithLabelValues(route, status).Inc()
}

// IncReservation counts a creation attempt with its outcome.
func IncReservation(outcome string) {
	reservations.WithLabelValues(outcome).Inc()
}

// ObserveLockWait records how long Acquire took.
func ObserveLockWait(d time.Duration) {
	lockWait.Observe(d.Seconds())
}

// IncLeaseLost counts a release that found its lease already expired.
func IncLeaseLost() {
	leaseLost.Inc()
}

// IncNotification counts a delivery attempt outcome.
func IncNotification(kind, result string) {
	notifications.WithLabelValues(kind, result).Inc()
}
