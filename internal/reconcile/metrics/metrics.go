package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for reconciliation runs.
type Metrics struct {
	Runs               *prometheus.CounterVec
	TeamsRemoved       prometheus.Counter
	EnrollmentsRevoked prometheus.Counter
	LastSuccess        prometheus.Gauge
	SkippedEnrollments prometheus.Counter
	RunDuration        prometheus.Histogram
}

// New registers the reconciliation metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterlink_reconcile_runs_total",
			Help: "Reconciliation runs by status",
		}, []string{"status"}),
		TeamsRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "rosterlink_reconcile_teams_removed_total",
			Help: "Teams the backend removed during reconciliation",
		}),
		EnrollmentsRevoked: f.NewCounter(prometheus.CounterOpts{
			Name: "rosterlink_reconcile_enrollments_revoked_total",
			Help: "Enrollments the backend revoked during reconciliation",
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "rosterlink_reconcile_last_success_timestamp_seconds",
			Help: "Unix time of the last successful reconciliation",
		}),
		SkippedEnrollments: f.NewCounter(prometheus.CounterOpts{
			Name: "rosterlink_reconcile_skipped_enrollments_total",
			Help: "Enrollments left out of a snapshot for lack of team codes",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rosterlink_reconcile_duration_seconds",
			Help:    "Duration of reconciliation uploads",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementRun records a run outcome.
func (m *Metrics) IncrementRun(status string) {
	m.Runs.WithLabelValues(status).Inc()
}

// RecordSummary records a backend cleanup summary.
func (m *Metrics) RecordSummary(teamsRemoved, enrollmentsRevoked int, at time.Time) {
	m.TeamsRemoved.Add(float64(teamsRemoved))
	m.EnrollmentsRevoked.Add(float64(enrollmentsRevoked))
	m.LastSuccess.Set(float64(at.Unix()))
}

// ObserveRun records the duration of an upload.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRun(start time.Time) {
	m.RunDuration.Observe(time.Since(start).Seconds())
}
