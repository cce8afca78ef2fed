package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the enrollment module.
// Tracks registrations, capacity truncation, revocations and model size.
type Metrics struct {
	Enrollments      *prometheus.CounterVec
	TeamsTruncated   prometheus.Counter
	Revocations      *prometheus.CounterVec
	TenantsRemoved   prometheus.Counter
	PersistFailures  prometheus.Counter
	TeamsHeld        prometheus.Gauge
	TenantsHeld      prometheus.Gauge
	RegisterDuration prometheus.Histogram
}

// New registers the enrollment metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Enrollments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterlink_enrollments_total",
			Help: "Enrollment attempts by outcome",
		}, []string{"outcome"}),
		TeamsTruncated: f.NewCounter(prometheus.CounterOpts{
			Name: "rosterlink_teams_truncated_total",
			Help: "Teams dropped by the device team ceiling",
		}),
		Revocations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterlink_tenant_revocations_total",
			Help: "Tenants moved to the revoked state, by reason",
		}, []string{"reason"}),
		TenantsRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "rosterlink_tenants_removed_total",
			Help: "Tenants removed from the device",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "rosterlink_model_persist_failures_total",
			Help: "Model snapshots that failed to persist",
		}),
		TeamsHeld: f.NewGauge(prometheus.GaugeOpts{
			Name: "rosterlink_teams_held",
			Help: "Teams currently held across all tenants",
		}),
		TenantsHeld: f.NewGauge(prometheus.GaugeOpts{
			Name: "rosterlink_tenants_held",
			Help: "Tenants currently held on the device",
		}),
		RegisterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "rosterlink_register_duration_seconds",
			Help:    "Duration of backend registration calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementEnrollment records an enrollment attempt outcome.
func (m *Metrics) IncrementEnrollment(outcome string) {
	m.Enrollments.WithLabelValues(outcome).Inc()
}

// AddTruncated records teams dropped at the ceiling.
func (m *Metrics) AddTruncated(n int) {
	m.TeamsTruncated.Add(float64(n))
}

// IncrementRevocation records a tenant revocation.
func (m *Metrics) IncrementRevocation(reason string) {
	m.Revocations.WithLabelValues(reason).Inc()
}

// ObserveRegister records the duration of a registration call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

// SetHeld records the current model size.
func (m *Metrics) SetHeld(tenants, teams int) {
	m.TenantsHeld.Set(float64(tenants))
	m.TeamsHeld.Set(float64(teams))
}
