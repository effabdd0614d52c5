package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

// Metrics holds the audit collectors, registered on a private registry so
// that several audits in one process (or test) never collide.
//
// Every method is safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RuleRuns      *prometheus.CounterVec
	RuleDuration  prometheus.Histogram
	Cases         *prometheus.CounterVec
	StageBindings *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RuleRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ontaudit_rule_runs_total",
				Help: "Rule executions by outcome (passed, failed, error)",
			},
			[]string{"outcome"},
		),
		RuleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ontaudit_rule_duration_seconds",
				Help:    "Wall time of one rule execution in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		Cases: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ontaudit_cases_total",
				Help: "Judged cases by outcome",
			},
			[]string{"outcome"},
		),
		StageBindings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ontaudit_stage_bindings_total",
				Help: "Bindings emitted by each stage",
			},
			[]string{"rule", "stage"},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ontaudit_query_duration_seconds",
				Help:    "Query service round trip in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"dialect"},
		),
	}
}

// Registry returns the private registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RuleRun records one finished rule execution.
func (m *Metrics) RuleRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RuleRuns.WithLabelValues(outcome).Inc()
	m.RuleDuration.Observe(d.Seconds())
}

// CaseJudged records one case.
func (m *Metrics) CaseJudged(passed bool) {
	if m == nil {
		return
	}
	outcome := OutcomePassed
	if !passed {
		outcome = OutcomeFailed
	}
	m.Cases.WithLabelValues(outcome).Inc()
}

// BindingsEmitted adds n bindings emitted by a stage.
func (m *Metrics) BindingsEmitted(rule, stage string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.StageBindings.WithLabelValues(rule, stage).Add(float64(n))
}

// QueryObserved records one query round trip.
func (m *Metrics) QueryObserved(dialect string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(dialect).Observe(d.Seconds())
}

// WriteTextfile writes the current values in the Prometheus text format,
// for the node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
