package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return s
}

func TestRunScenarioGolden(t *testing.T) {
	for _, name := range []string{"subclass_reduction.yaml", "empty_data.yaml"} {
		t.Run(name, func(t *testing.T) {
			s := loadTestScenario(t, name)
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "assertion errors: %v", result.Errors)
		})
	}
}

func TestRunScenarioIsDeterministic(t *testing.T) {
	s := loadTestScenario(t, "subclass_reduction.yaml")

	first, err := Run(t.Context(), s)
	require.NoError(t, err)
	second, err := Run(t.Context(), s)
	require.NoError(t, err)

	assert.Equal(t, first.Cases, second.Cases)
}

func TestRunScenarioFailingAssertion(t *testing.T) {
	s := loadTestScenario(t, "subclass_reduction.yaml")
	s.Assertions = []Assertion{
		{Type: AssertCasePasses, Rule: "subclass-reduction", Case: "A < C"},
		{Type: AssertCaseCount, Rule: "subclass-reduction", Count: 2},
	}

	result, err := Run(t.Context(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[0], "case fail (Asserted in http://example.org/g2.)")
	assert.Contains(t, result.Errors[1], "Actual: 3 cases")
}

func TestRunScenarioExplicitGraphs(t *testing.T) {
	s := loadTestScenario(t, "subclass_reduction.yaml")
	s.Graphs = []string{"http://example.org/g1"}
	s.RunID = "pinned"

	result, err := Run(t.Context(), s)
	require.NoError(t, err)
	require.NotEmpty(t, result.Cases)
	assert.Equal(t, "pinned-1", result.Cases[0].RunID)
}

func TestRunScenarioSPARQLRuleRejected(t *testing.T) {
	dir := t.TempDir()
	rule := filepath.Join(dir, "remote.yaml")
	require.NoError(t, os.WriteFile(rule, []byte(`
rules:
  - name: remote
    stages:
      - query: "SELECT ?c WHERE { ?c a owl:Class }"
`), 0o644))

	s := &Scenario{
		Name:       "remote",
		Rules:      []string{rule},
		Assertions: []Assertion{{Type: AssertCaseCount, Rule: "remote"}},
	}
	_, err := Run(t.Context(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no query service for dialect sparql")
}

func TestRunScenarioBadData(t *testing.T) {
	s := loadTestScenario(t, "empty_data.yaml")
	s.Data = "<http://example.org/A> <http://example.org/p>\n"

	_, err := Run(t.Context(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inline data")
}
