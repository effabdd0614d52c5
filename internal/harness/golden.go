package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ontaudit/internal/ir"
)

// Snapshot is the golden form of a scenario result: every case in run
// order, serialized as canonical JSON.
type Snapshot struct {
	ScenarioName string
	Cases        []CaseEvent
}

// Canonical returns the snapshot as canonical JSON.
func (s *Snapshot) Canonical() ([]byte, error) {
	cases := make([]any, len(s.Cases))
	for i, c := range s.Cases {
		m := map[string]any{
			"rule":   c.Rule,
			"run_id": c.RunID,
			"case":   c.Case,
			"passed": c.Passed,
		}
		if c.Message != "" {
			m["message"] = c.Message
		}
		cases[i] = m
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": s.ScenarioName,
		"cases":         cases,
	})
}

// SnapshotOf builds the golden snapshot of a result.
func SnapshotOf(name string, result *Result) *Snapshot {
	return &Snapshot{ScenarioName: name, Cases: result.Cases}
}

// RunWithGolden executes a scenario and compares its cases against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the cases don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotOf(scenarioName, result).Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
