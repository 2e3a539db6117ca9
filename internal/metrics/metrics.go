// Package metrics records per-run counters and exports them in the node
// exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cinematch/internal/gate"
	"cinematch/internal/library"
	"cinematch/internal/pipeline"
)

// Run holds the metrics for one cinematch process. It implements
// pipeline.Observer.
type Run struct {
	registry *prometheus.Registry

	files        *prometheus.CounterVec
	outcomes     *prometheus.CounterVec
	errors       *prometheus.CounterVec
	fileDuration prometheus.Histogram
	runDuration  prometheus.Gauge
	lastRun      prometheus.Gauge
	unprocessed  prometheus.Gauge
}

// New registers the metrics on a private registry.
func New() *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Run{
		registry: reg,
		files: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinematch_files_total",
			Help: "Files processed by decision",
		}, []string{"decision"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinematch_library_outcomes_total",
			Help: "Library upsert outcomes",
		}, []string{"outcome"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinematch_file_errors_total",
			Help: "Per-file failures by kind",
		}, []string{"kind"}),
		fileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cinematch_file_duration_seconds",
			Help:    "Time spent on one file",
			Buckets: prometheus.DefBuckets,
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cinematch_last_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cinematch_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		unprocessed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cinematch_last_run_unprocessed_files",
			Help: "Files left unprocessed by the last run",
		}),
	}
}

// ObserveResult counts one finished file.
func (r *Run) ObserveResult(res pipeline.Result) {
	r.files.WithLabelValues(gate.Label(res.Selection)).Inc()
	if res.Outcome != nil {
		r.outcomes.WithLabelValues(library.Label(res.Outcome)).Inc()
	}
	if res.Err != "" {
		r.errors.WithLabelValues(res.Err).Inc()
	}
	r.fileDuration.Observe(res.Elapsed.Seconds())
}

// ObserveRun records run-level gauges.
func (r *Run) ObserveRun(s *pipeline.Summary) {
	r.runDuration.Set(s.Duration().Seconds())
	r.lastRun.Set(float64(s.FinishedAt.Unix()))
	r.unprocessed.Set(float64(s.Unprocessed))
}

// Gatherer exposes the registry.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics to path atomically, creating the parent
// directory if needed.
func (r *Run) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
