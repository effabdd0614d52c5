package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontaudit/internal/store"
)

const classData = `
<http://example.org/A> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Class> .
<http://example.org/B> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Class> .
<http://example.org/C> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://www.w3.org/2002/07/owl#Class> .
<http://example.org/A> <http://www.w3.org/2000/01/rdf-schema#label> "A" .
<http://example.org/B> <http://www.w3.org/2000/01/rdf-schema#label> "B" .
<http://example.org/A> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://example.org/B> <http://example.org/g1> .
<http://example.org/B> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://example.org/C> <http://example.org/g1> .
<http://example.org/A> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://example.org/C> <http://example.org/g2> .
`

// labelRule fails every class without an rdfs:label.
const labelRule = `
rules:
  - name: classes-have-labels
    stages:
      - name: classes
        dialect: sql
        query: |
          SELECT c.subject AS c, l.object AS label
          FROM quads c
          LEFT JOIN quads l
            ON l.subject = c.subject
           AND l.predicate = '<http://www.w3.org/2000/01/rdf-schema#label>'
          WHERE c.predicate = '<http://www.w3.org/1999/02/22-rdf-syntax-ns#type>'
            AND c.object = '<http://www.w3.org/2002/07/owl#Class>'
          ORDER BY c.subject
    predicate:
      expr: bound(label)
      message: "{{local .c}} has no label"
    case_name: "{{local .c}}"
`

// reductionRule fails redundant subclass axioms.
const reductionRule = `
rules:
  - name: subclass-reduction
    stages:
      - match:
          patterns:
            - ["?sub", "rdfs:subClassOf", "?sup", "?graph"]
        dialect: sql
      - transform: reduction
    case_name: "{{local .sub}} < {{local .sup}}"
`

// writeFile writes content to dir/name, creating parent directories.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// createTestStore creates a quad store file holding classData.
func createTestStore(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "data.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.LoadNTriples(context.Background(), strings.NewReader(classData), "")
	require.NoError(t, err)
	return path
}

// execute runs a command built by newCmd with args and returns its
// standard output.
func execute(t *testing.T, newCmd func(*RootOptions) *cobra.Command, format string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newCmd(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
