package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReservationMetrics bundles every metric the protocol exposes.
type ReservationMetrics struct {
	ReservationsCreatedTotal *prometheus.CounterVec
	TransitionsTotal         *prometheus.CounterVec
	TransitionFailuresTotal  *prometheus.CounterVec
	GuardRejectionsTotal     *prometheus.CounterVec
	VersionConflictsTotal    prometheus.Counter
	ReservationsExpiredTotal prometheus.Counter
	TransitionDuration       *prometheus.HistogramVec
}

func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	factory := promauto.With(reg)

	return &ReservationMetrics{
		ReservationsCreatedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reservations_created_total",
			Help: "Reservations created and held, by partner",
		}, []string{"partner_id"}),

		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reservation_transitions_total",
			Help: "Committed state transitions",
		}, []string{"from_state", "to_state", "triggered_by"}),

		TransitionFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reservation_transition_failures_total",
			Help: "Rejected transition attempts, by rejection code",
		}, []string{"code"}),

		GuardRejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reservation_guard_rejections_total",
			Help: "Transitions vetoed by a guard, by routed failure state",
		}, []string{"failure_state"}),

		VersionConflictsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reservation_version_conflicts_total",
			Help: "Optimistic-lock conflicts on transition writes",
		}),

		ReservationsExpiredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reservations_expired_total",
			Help: "Reservations driven to EXPIRED by the sweeper",
		}),

		TransitionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reservation_transition_duration_seconds",
			Help:    "End-to-end transition latency including persistence",
			Buckets: prometheus.DefBuckets,
		}, []string{"to_state"}),
	}
}

func (m *ReservationMetrics) ObserveTransition(toState string, started time.Time) {
	m.TransitionDuration.WithLabelValues(toState).Observe(time.Since(started).Seconds())
}
