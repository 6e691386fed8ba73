// Package metrics records step executions in a Prometheus registry that can
// be exported as a node_exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bgricker/eggstep/internal/report"
)

const namespace = "eggstep"

// Recorder owns the step metrics. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	executions *prometheus.CounterVec
	records    *prometheus.CounterVec
	artifacts  prometheus.Counter
	exitCode   prometheus.Gauge
	duration   prometheus.Histogram
}

// New returns a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_executions_total",
			Help:      "Step executions by outcome",
		}, []string{"outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Parsed result records by status",
		}, []string{"status"}),
		artifacts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "RunHistory.csv files parsed",
		}),
		exitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_exit_code",
			Help:      "Exit code of the last eggPlant process",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of step executions",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	r.registry.MustRegister(r.executions, r.records, r.artifacts, r.exitCode, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveProcess records the exit code of a finished process.
func (r *Recorder) ObserveProcess(exitCode int) {
	if r == nil {
		return
	}
	r.exitCode.Set(float64(exitCode))
}

// ObserveArtifact records one parsed artifact and its records.
func (r *Recorder) ObserveArtifact(records []report.Record) {
	if r == nil {
		return
	}
	r.artifacts.Inc()
	for _, rec := range records {
		if rec.Passed {
			r.records.WithLabelValues("passed").Inc()
		} else {
			r.records.WithLabelValues("failed").Inc()
		}
	}
}

// ObserveStep records a finished step. outcome is "success", "failure" or
// "error" for configuration and launch failures.
func (r *Recorder) ObserveStep(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.executions.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// WriteTextfile exports the registry to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %q: %w", path, err)
	}
	return nil
}
