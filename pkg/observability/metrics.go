package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/justjake/fntimer/pkg/harness"
	"github.com/justjake/fntimer/pkg/report"
	"github.com/justjake/fntimer/pkg/timer"
)

// Metrics holds all Prometheus metrics for fntimer. It is a harness.Observer;
// every Record method is a no-op on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Counters
	RunsTotal              *prometheus.CounterVec
	CandidatesTotal        *prometheus.CounterVec
	CheckpointSamplesTotal *prometheus.CounterVec

	// Gauges
	OpsPerSecond     *prometheus.GaugeVec
	Iterations       *prometheus.GaugeVec
	ElapsedSeconds   *prometheus.GaugeVec
	CalibrationSteps *prometheus.GaugeVec
	PercentSlower    *prometheus.GaugeVec
}

var _ harness.Observer = (*Metrics)(nil)

// NewMetrics creates a Metrics instance on its own registry. constLabels are
// added to every metric.
func NewMetrics(constLabels map[string]string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := prometheus.Labels(constLabels)

	return &Metrics{
		registry: reg,

		// Counters
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "fntimer_runs_total",
				Help:        "Total number of measurement runs",
				ConstLabels: labels,
			},
			[]string{"status"},
		),
		CandidatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "fntimer_candidates_total",
				Help:        "Total number of candidates attempted",
				ConstLabels: labels,
			},
			[]string{"status"},
		),
		CheckpointSamplesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "fntimer_checkpoint_samples_total",
				Help:        "Elapsed-time samples taken during calibration",
				ConstLabels: labels,
			},
			[]string{"candidate", "converged"},
		),

		// Gauges
		OpsPerSecond: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "fntimer_candidate_ops_per_second",
				Help:        "Measured throughput of the most recent run of a candidate",
				ConstLabels: labels,
			},
			[]string{"candidate"},
		),
		Iterations: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "fntimer_candidate_iterations",
				Help:        "Calls executed in the timed window",
				ConstLabels: labels,
			},
			[]string{"candidate"},
		),
		ElapsedSeconds: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "fntimer_candidate_elapsed_seconds",
				Help:        "Length of the timed window in seconds",
				ConstLabels: labels,
			},
			[]string{"candidate"},
		),
		CalibrationSteps: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "fntimer_candidate_calibration_steps",
				Help:        "Times the checkpoint was scaled before a usable sample",
				ConstLabels: labels,
			},
			[]string{"candidate"},
		),
		PercentSlower: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "fntimer_candidate_percent_slower",
				Help:        "How much slower than the fastest candidate, in percent",
				ConstLabels: labels,
			},
			[]string{"candidate"},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes every metric to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordResult records a measured candidate.
func (m *Metrics) RecordResult(r timer.RunResult) {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues("success").Inc()
	m.OpsPerSecond.WithLabelValues(r.Name).Set(r.OpsPerSec())
	m.Iterations.WithLabelValues(r.Name).Set(float64(r.Iterations))
	m.ElapsedSeconds.WithLabelValues(r.Name).Set(r.ElapsedSeconds())
	m.CalibrationSteps.WithLabelValues(r.Name).Set(float64(r.CalibrationSteps))
}

// RecordFault records a candidate that could not be measured.
func (m *Metrics) RecordFault() {
	if m == nil {
		return
	}
	m.CandidatesTotal.WithLabelValues("error").Inc()
}

// RecordRanking records every compared candidate's distance from the fastest.
func (m *Metrics) RecordRanking(ranked []report.RankedResult) {
	if m == nil {
		return
	}
	for _, r := range ranked {
		if r.Compared {
			m.PercentSlower.WithLabelValues(r.Name).Set(r.PercentSlower)
		}
	}
}

func (m *Metrics) RunStarted(ctx context.Context, _ timer.ArgumentSet, _ int) context.Context {
	return ctx
}

func (m *Metrics) CandidateStarted(ctx context.Context, _ int, _ string) context.Context {
	return ctx
}

func (m *Metrics) CheckpointSampled(_ context.Context, name string, st timer.CalibrationState) {
	if m == nil {
		return
	}
	converged := "false"
	if st.Converged {
		converged = "true"
	}
	m.CheckpointSamplesTotal.WithLabelValues(name, converged).Inc()
}

func (m *Metrics) CandidateFinished(_ context.Context, o harness.Outcome) {
	if o.OK() {
		m.RecordResult(o.Result)
	} else {
		m.RecordFault()
	}
}

func (m *Metrics) RunFinished(_ context.Context, ranked []report.RankedResult, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RecordRanking(ranked)
}
