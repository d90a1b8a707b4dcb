package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	dayPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tasknest",
		Subsystem: "persistence",
		Name:      "last_day_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent day ledger persisted.",
	})
	analysesGenerated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tasknest",
		Subsystem: "insight",
		Name:      "analyses_generated_total",
		Help:      "Number of productivity analyses served, including degraded results.",
	})
	analysesDegraded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tasknest",
		Subsystem: "insight",
		Name:      "analyses_degraded_total",
		Help:      "Number of analyses that fell back to a placeholder result.",
	})
)

func init() {
	prometheus.MustRegister(dayPersistGauge, analysesGenerated, analysesDegraded)
}

// RecordDayPersisted updates the persistence watermark gauge.
func RecordDayPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	dayPersistGauge.Set(float64(ts.Unix()))
}

// RecordAnalysis counts one served analysis; degraded marks fallbacks.
func RecordAnalysis(degraded bool) {
	analysesGenerated.Inc()
	if degraded {
		analysesDegraded.Inc()
	}
}
