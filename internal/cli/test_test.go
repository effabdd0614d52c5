package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelScenario passes against labelRule over classData.
const labelScenario = `
name: labels
description: "Unlabeled classes fail"
rules:
  - rules/labels.yaml
data_files:
  - data/classes.nt
assertions:
  - type: case_count
    rule: classes-have-labels
    count: 3
  - type: case_fails
    rule: classes-have-labels
    case: C
    message: "C has no label"
`

// wrongScenario expects C to pass and always fails.
const wrongScenario = `
name: wrong
description: "Expects an unlabeled class to pass"
rules:
  - rules/labels.yaml
data_files:
  - data/classes.nt
assertions:
  - type: case_passes
    rule: classes-have-labels
    case: C
`

// scenarioDir lays out a scenarios directory with shared rules and data.
func scenarioDir(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "rules/labels.yaml", labelRule)
	writeFile(t, dir, "data/classes.nt", classData)
	for name, content := range scenarios {
		writeFile(t, dir, name, content)
	}
	return dir
}

func TestTestCommandPasses(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"labels.yaml": labelScenario})

	out, err := execute(t, NewTestCommand, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ labels (3 cases)")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailingAssertion(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"labels.yaml": labelScenario,
		"wrong.yaml":  wrongScenario,
	})

	out, err := execute(t, NewTestCommand, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "assertions[0]:")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"labels.yaml": labelScenario,
		"wrong.yaml":  wrongScenario,
	})

	out, err := execute(t, NewTestCommand, "text", dir, "--filter", "lab*")
	require.NoError(t, err)
	assert.NotContains(t, out, "wrong")
	assert.Contains(t, out, "1 total")
}

func TestTestCommandGoldenFiles(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"labels.yaml": labelScenario})
	golden := filepath.Join(dir, "golden", "labels.golden")

	out, err := execute(t, NewTestCommand, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ labels (golden updated)")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `{"cases":[{"case":"A","passed":true,"rule":"classes-have-labels","run_id":"labels-1"}`))

	// Unchanged results match the golden file
	_, err = execute(t, NewTestCommand, "text", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte(`{"cases":[],"scenario_name":"labels"}`), 0o644))
	out, err = execute(t, NewTestCommand, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "cases do not match golden file")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\n"})

	out, err := execute(t, NewTestCommand, "text", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "Load error: ")
}

func TestTestCommandJSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{
		"labels.yaml": labelScenario,
		"wrong.yaml":  wrongScenario,
	})

	out, err := execute(t, NewTestCommand, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "labels", resp.Data.Scenarios[0].Name)
	assert.True(t, resp.Data.Scenarios[0].Pass)
	assert.False(t, resp.Data.Scenarios[1].Pass)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestTestCommandNoScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand, "text", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommandMissingDirectory(t *testing.T) {
	_, err := execute(t, NewTestCommand, "text", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}
