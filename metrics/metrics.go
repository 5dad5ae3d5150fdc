// Package metrics counts grading outcomes and exports them in the Prometheus
// text format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsNamespace = "autograde"

// Grading outcomes.
const (
	OutcomeGraded       = "graded"
	OutcomeZero         = "zero"
	OutcomeStagingError = "staging_error"
	OutcomeSkipped      = "skipped"
)

// Harness run results.
const (
	HarnessOK          = "ok"
	HarnessTestsFailed = "tests_failed"
	HarnessCrash       = "crash"
	HarnessTimeout     = "timeout"
)

// Recorder owns a registry holding the grading metrics. A nil *Recorder
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	gradingsTotal    *prometheus.CounterVec
	harnessRunsTotal *prometheus.CounterVec
	gradingDuration  prometheus.Histogram
	lastScore        *prometheus.GaugeVec
}

// NewRecorder creates a recorder over a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		gradingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "gradings_total",
			Help:      "Count of grading invocations by outcome",
		}, []string{
			"outcome",
		}),
		harnessRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "harness_runs_total",
			Help:      "Count of harness processes by result",
		}, []string{
			"result",
		}),
		gradingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "grading_duration_seconds",
			Help:      "Duration of grading invocations",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		lastScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_score",
			Help:      "Score of the latest grading of a submission",
		}, []string{
			"submission",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordGrading counts one grading invocation and its duration.
func (r *Recorder) RecordGrading(outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.gradingsTotal.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		r.gradingDuration.Observe(duration.Seconds())
	}
}

// RecordHarnessRun counts one harness process.
func (r *Recorder) RecordHarnessRun(result string) {
	if r == nil {
		return
	}
	r.harnessRunsTotal.WithLabelValues(result).Inc()
}

// RecordScore sets the latest score of a submission.
func (r *Recorder) RecordScore(submission string, score float64) {
	if r == nil || submission == "" {
		return
	}
	r.lastScore.WithLabelValues(submission).Set(score)
}

// WriteTextfile writes every metric to path, for the node exporter's
// textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
