package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CheckTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uptimatum_check_ticks_total",
			Help: "Number of check ticks fired",
		},
	)

	Probes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uptimatum_probes_total",
			Help: "Probe outcomes by status",
		},
		[]string{"status"},
	)

	ProbeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "uptimatum_probe_duration_seconds",
			Help:    "Probe response time in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	CheckWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uptimatum_check_writes_total",
			Help: "Check history writes by decision (append, update or stale)",
		},
		[]string{"decision"},
	)

	CheckWriteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uptimatum_check_write_errors_total",
			Help: "Failed check history writes by reason",
		},
		[]string{"reason"},
	)

	RetentionDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uptimatum_retention_deleted_total",
			Help: "Check records removed by the retention sweep",
		},
	)

	InflightChecks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "uptimatum_inflight_checks",
			Help: "Probe and write pipelines currently running",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CheckTicks,
		Probes,
		ProbeDuration,
		CheckWrites,
		CheckWriteErrors,
		RetentionDeleted,
		InflightChecks,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
