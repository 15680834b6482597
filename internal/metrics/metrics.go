// Package metrics exposes pipeline health to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"snapshot-keeper/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// PipelineMetrics owns its registry so tests and multiple instances never
// collide on the global one.
type PipelineMetrics struct {
	registry *prometheus.Registry

	runs           *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	derivedEntries prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

func NewPipelineMetrics() *PipelineMetrics {
	m := &PipelineMetrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapshot_pipeline_runs_total",
				Help: "Pipeline runs by result",
			},
			[]string{"result"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snapshot_pipeline_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage", "result"},
		),
		derivedEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_pipeline_derived_entries",
			Help: "Entries written to the derived document by the last successful run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "snapshot_pipeline_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}
	m.registry.MustRegister(m.runs, m.stageDuration, m.derivedEntries, m.lastSuccess)
	return m
}

// ObserveStage records one stage. A nil receiver is a no-op.
func (m *PipelineMetrics) ObserveStage(stage domain.Stage, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailed
	}
	m.stageDuration.WithLabelValues(string(stage), result).Observe(elapsed.Seconds())
}

// ObserveRun records the outcome of a run or of a skipped trigger.
func (m *PipelineMetrics) ObserveRun(outcome domain.Outcome) {
	if m == nil {
		return
	}
	switch {
	case outcome.Skipped:
		m.runs.WithLabelValues(ResultSkipped).Inc()
	case outcome.Success:
		m.runs.WithLabelValues(ResultSuccess).Inc()
		m.derivedEntries.Set(float64(outcome.FilteredSize))
		m.lastSuccess.Set(float64(outcome.FinishedAt.Unix()))
	default:
		m.runs.WithLabelValues(ResultFailed).Inc()
	}
}

func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
