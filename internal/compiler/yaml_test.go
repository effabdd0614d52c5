package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlRules = `
rules:
  - name: classes-have-labels
    stages:
      - name: classes
        query: |
          SELECT ?c ?label WHERE { ?c a owl:Class OPTIONAL { ?c rdfs:label ?label } }
      - transform: distinct
    predicate:
      expr: bound(label)
      message: "{{qname .c}} has no label"
    case_name: "{{qname .c}}"
---
rules:
  - name: owners
    setup:
      - table: owners
        rows:
          - {key: "ex:A", owner: alice}
    stages:
      - match:
          patterns:
            - ["?c", "a", "owl:Class"]
        dialect: sql
      - transform: lookup
        options: {table: owners, key: key, "on": c}
`

func TestParseYAML(t *testing.T) {
	specs, err := ParseYAML("rules.yaml", []byte(yamlRules))
	require.NoError(t, err)
	require.Len(t, specs, 2)

	first := specs[0]
	assert.Equal(t, "classes-have-labels", first.Name)
	assert.Equal(t, "rules.yaml", first.Source)
	require.Len(t, first.Stages, 2)
	assert.Contains(t, first.Stages[0].Query, "OPTIONAL")
	assert.Equal(t, "bound(label)", first.Predicate.Expr)
	assert.Equal(t, "{{qname .c}} has no label", first.Predicate.Message)

	second := specs[1]
	assert.Equal(t, "owners", second.Name)
	require.Len(t, second.Setup, 1)
	assert.Equal(t, []map[string]string{{"key": "ex:A", "owner": "alice"}}, second.Setup[0].Rows)
	assert.Equal(t, [][]string{{"?c", "a", "owl:Class"}}, second.Stages[0].Match.Patterns)
	assert.Equal(t, map[string]string{"table": "owners", "key": "key", "on": "c"}, second.Stages[1].Options)

	for _, spec := range specs {
		assert.Empty(t, Validate(&spec), "rule %s", spec.Name)
	}
}

func TestParseYAMLUnknownField(t *testing.T) {
	src := `
rules:
  - name: r
    stages: [{query: "SELECT ?x WHERE {}"}]
    severity: high
`
	_, err := ParseYAML("bad.yaml", []byte(src))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml: document 1")
	assert.Contains(t, err.Error(), "severity")
}

func TestParseYAMLEmpty(t *testing.T) {
	specs, err := ParseYAML("empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "a.yml")
	cuePath := filepath.Join(dir, "b.cue")
	txtPath := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(yamlPath, []byte("rules:\n  - name: y\n    stages: [{transform: pass}]\n"), 0o644))
	require.NoError(t, os.WriteFile(cuePath, []byte(`rule: c: stages: [{transform: "pass"}]`), 0o644))
	require.NoError(t, os.WriteFile(txtPath, []byte("nothing"), 0o644))

	specs, err := LoadFile(yamlPath)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "y", specs[0].Name)

	specs, err = LoadFile(cuePath)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "c", specs[0].Name)
	assert.Equal(t, cuePath, specs[0].Source)

	_, err = LoadFile(txtPath)
	assert.ErrorContains(t, err, "unsupported rule file type")

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read rule file")
}

func TestIsRuleFile(t *testing.T) {
	assert.True(t, IsRuleFile("a.yaml"))
	assert.True(t, IsRuleFile("dir/a.YML"))
	assert.True(t, IsRuleFile("a.cue"))
	assert.False(t, IsRuleFile("a.json"))
	assert.False(t, IsRuleFile("README"))
}
