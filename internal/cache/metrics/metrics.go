package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tiered cache.
type Metrics struct {
	Reads         *prometheus.CounterVec
	Evictions     prometheus.Counter
	Purges        *prometheus.CounterVec
	DroppedWrites prometheus.Counter
	TierErrors    *prometheus.CounterVec
	MemoryBytes   prometheus.Gauge
}

// New registers the cache metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Reads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterlink_cache_reads_total",
			Help: "Cache reads by tier and resulting state",
		}, []string{"tier", "state"}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Name: "rosterlink_cache_evictions_total",
			Help: "Memory-tier entries evicted by the byte budget",
		}),
		Purges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterlink_cache_purges_total",
			Help: "Entries purged, by reason",
		}, []string{"reason"}),
		DroppedWrites: f.NewCounter(prometheus.CounterOpts{
			Name: "rosterlink_cache_dropped_writes_total",
			Help: "Persistent-tier writes dropped because the queue was full",
		}),
		TierErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterlink_cache_tier_errors_total",
			Help: "Persistent-tier operation failures",
		}, []string{"op"}),
		MemoryBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "rosterlink_cache_memory_bytes",
			Help: "Bytes held by the memory tier",
		}),
	}
}

// IncrementRead records a read outcome.
func (m *Metrics) IncrementRead(tier, state string) {
	m.Reads.WithLabelValues(tier, state).Inc()
}

// IncrementPurge records a purged entry.
func (m *Metrics) IncrementPurge(reason string) {
	m.Purges.WithLabelValues(reason).Inc()
}

// IncrementTierError records a persistent-tier failure.
func (m *Metrics) IncrementTierError(op string) {
	m.TierErrors.WithLabelValues(op).Inc()
}
