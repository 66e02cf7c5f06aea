// Package metrics records per-run pipeline counters. Each command owns a
// fresh registry, which is flushed to a node-exporter textfile when the
// run ends.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "campseed"

type Run struct {
	registry *prometheus.Registry

	rows             *prometheus.CounterVec
	skipped          *prometheus.CounterVec
	usersSynthesized prometheus.Counter
	recordsWritten   *prometheus.CounterVec
	duration         prometheus.Gauge
	lastSuccess      prometheus.Gauge
}

// NewRun creates the counters for one invocation of command.
func NewRun(command string) *Run {
	labels := prometheus.Labels{"command": command}
	r := &Run{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "rows_total",
			Help:        "Input rows read, by pipeline stage.",
			ConstLabels: labels,
		}, []string{"stage"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "skipped_total",
			Help:        "Registration rows skipped, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		usersSynthesized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "users_synthesized_total",
			Help:        "Users created while resolving registrations.",
			ConstLabels: labels,
		}),
		recordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "records_written_total",
			Help:        "Records written, by output artifact.",
			ConstLabels: labels,
		}, []string{"artifact"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "run_duration_seconds",
			Help:        "Wall time of the last run.",
			ConstLabels: labels,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_success_timestamp_seconds",
			Help:        "Unix time of the last successful run.",
			ConstLabels: labels,
		}),
	}
	r.registry.MustRegister(r.rows, r.skipped, r.usersSynthesized, r.recordsWritten, r.duration, r.lastSuccess)
	return r
}

func (r *Run) Registry() *prometheus.Registry { return r.registry }

func (r *Run) RowsRead(stage string, n int) {
	r.rows.WithLabelValues(stage).Add(float64(n))
}

func (r *Run) Skipped(reason string, n int) {
	r.skipped.WithLabelValues(reason).Add(float64(n))
}

func (r *Run) UsersSynthesized(n int) {
	r.usersSynthesized.Add(float64(n))
}

func (r *Run) RecordsWritten(artifact string, n int) {
	r.recordsWritten.WithLabelValues(artifact).Add(float64(n))
}

// Succeeded stamps the run duration and success time.
func (r *Run) Succeeded(start, end time.Time) {
	r.duration.Set(end.Sub(start).Seconds())
	r.lastSuccess.Set(float64(end.Unix()))
}

// WriteTextfile writes the registry atomically in the text exposition format.
func (r *Run) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
