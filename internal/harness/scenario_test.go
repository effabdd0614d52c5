package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenarioResolvesPaths(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "subclass_reduction.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "subclass-reduction", s.Name)
	assert.Equal(t, []string{
		filepath.Join("testdata", "rules", "reduction.yaml"),
		filepath.Join("testdata", "rules", "labels.yaml"),
	}, s.Rules)
	assert.Equal(t, []string{filepath.Join("testdata", "data", "classes.nt")}, s.DataFiles)
	assert.Equal(t, "http://example.org/", s.Prefixes["ex"])
	assert.Len(t, s.Assertions, 6)
}

func TestLoadScenarioErrors(t *testing.T) {
	rule, err := filepath.Abs(filepath.Join("testdata", "rules", "reduction.yaml"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown field",
			body:    "name: x\ndescription: d\nrules: [" + rule + "]\nassertion: []\n",
			wantErr: "field assertion not found",
		},
		{
			name:    "missing name",
			body:    "description: d\nrules: [" + rule + "]\nassertions: [{type: case_count, rule: r}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing rule file",
			body:    "name: x\ndescription: d\nrules: [nope.yaml]\nassertions: [{type: case_count, rule: r}]\n",
			wantErr: "rule file not found",
		},
		{
			name:    "no assertions",
			body:    "name: x\ndescription: d\nrules: [" + rule + "]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown assertion",
			body:    "name: x\ndescription: d\nrules: [" + rule + "]\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "case without rule",
			body:    "name: x\ndescription: d\nrules: [" + rule + "]\nassertions: [{type: case_fails, case: A}]\n",
			wantErr: "rule and case are required",
		},
		{
			name:    "message on passing case",
			body:    "name: x\ndescription: d\nrules: [" + rule + "]\nassertions: [{type: case_passes, rule: r, case: A, message: m}]\n",
			wantErr: "message only applies to case_fails",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.body)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
