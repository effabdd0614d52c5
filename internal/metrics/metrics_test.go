package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, m *Metrics) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func counterValue(f *dto.MetricFamily, label, value string) float64 {
	for _, metric := range f.GetMetric() {
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RuleRun(OutcomePassed, 10*time.Millisecond)
	m.RuleRun(OutcomeError, time.Second)
	m.CaseJudged(true)
	m.CaseJudged(false)
	m.CaseJudged(false)
	m.BindingsEmitted("r", "edges", 3)
	m.BindingsEmitted("r", "edges", 0)
	m.QueryObserved("sql", 2*time.Millisecond)

	fams := gather(t, m)

	assert.Equal(t, 1.0, counterValue(fams["ontaudit_rule_runs_total"], "outcome", OutcomePassed))
	assert.Equal(t, 1.0, counterValue(fams["ontaudit_rule_runs_total"], "outcome", OutcomeError))
	assert.Equal(t, 1.0, counterValue(fams["ontaudit_cases_total"], "outcome", OutcomePassed))
	assert.Equal(t, 2.0, counterValue(fams["ontaudit_cases_total"], "outcome", OutcomeFailed))
	assert.Equal(t, 3.0, counterValue(fams["ontaudit_stage_bindings_total"], "stage", "edges"))

	hist := fams["ontaudit_query_duration_seconds"].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount())
	assert.Equal(t, uint64(2), fams["ontaudit_rule_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RuleRun(OutcomePassed, time.Second)
		m.CaseJudged(true)
		m.BindingsEmitted("r", "s", 1)
		m.QueryObserved("sparql", time.Second)
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestMetrics_PrivateRegistries(t *testing.T) {
	a, b := New(), New()
	a.CaseJudged(true)

	assert.Equal(t, 1.0, counterValue(gather(t, a)["ontaudit_cases_total"], "outcome", OutcomePassed))
	_, ok := gather(t, b)["ontaudit_cases_total"]
	assert.False(t, ok, "vectors with no children are not gathered")
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.CaseJudged(false)

	path := filepath.Join(t.TempDir(), "ontaudit.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `ontaudit_cases_total{outcome="failed"} 1`))
}
