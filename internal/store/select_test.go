package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
	"github.com/roach88/ontaudit/internal/queryir"
)

func selectSQL(t *testing.T, s *Store, text string, b ir.Binding) []ir.Binding {
	t.Helper()
	req, err := query.Bind(text, query.SQL, b)
	require.NoError(t, err)
	rows, err := s.Select(context.Background(), req)
	require.NoError(t, err)
	return rows
}

func TestSelect_DecodesColumns(t *testing.T) {
	s := createTestStore(t)

	rows := selectSQL(t, s, `
		SELECT 1 AS n, 2.5 AS d, '<urn:a>' AS iri, '"chat"@fr' AS lit,
		       'plain text' AS plain, NULL AS missing, '' AS empty
	`, ir.EmptyBinding())

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, []string{"n", "d", "iri", "lit", "plain", "empty"}, row.Vars())

	n, _ := row.Get("n")
	assert.Equal(t, ir.Int(1), n)
	d, _ := row.Get("d")
	assert.Equal(t, ir.Double(2.5), d)
	iri, _ := row.Get("iri")
	assert.Equal(t, ir.IRI("urn:a"), iri)
	lit, _ := row.Get("lit")
	assert.Equal(t, ir.NewLangLiteral("chat", "fr"), lit)
	plain, _ := row.Get("plain")
	assert.Equal(t, ir.String("plain text"), plain)
	assert.False(t, row.Has("missing"))
}

func TestSelect_RowOrderPreserved(t *testing.T) {
	s := createTestStore(t)

	rows := selectSQL(t, s, `SELECT 1 AS x UNION ALL SELECT 2 AS x ORDER BY x`, ir.EmptyBinding())

	require.Len(t, rows, 2)
	x1, _ := rows[0].Get("x")
	x2, _ := rows[1].Get("x")
	assert.Equal(t, ir.Int(1), x1)
	assert.Equal(t, ir.Int(2), x2)
}

func TestSelect_NamedParameters(t *testing.T) {
	s := createTestStore(t)
	loadTestData(t, s)

	b := ir.NewBinding(ir.E("sub", ir.IRI("urn:A")))
	rows := selectSQL(t, s, `
		SELECT object AS sup FROM quads
		WHERE subject = :sub AND predicate = '`+subClassOf.NT()+`'
		ORDER BY object COLLATE BINARY
	`, b)

	require.Len(t, rows, 2)
	sup, _ := rows[0].Get("sup")
	assert.Equal(t, ir.IRI("urn:B"), sup)
}

func TestSelect_EmptyResult(t *testing.T) {
	s := createTestStore(t)

	rows := selectSQL(t, s, `SELECT subject FROM quads`, ir.EmptyBinding())
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSelect_WrongDialect(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Select(context.Background(), query.Request{Dialect: query.SPARQL, Text: "SELECT 1"})
	require.Error(t, err)
}

func TestSelect_SQLError(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Select(context.Background(), query.Request{Name: "broken", Dialect: query.SQL, Text: "SELECT FROM"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sql query broken")
}

func TestSelect_CompiledMatch(t *testing.T) {
	s := createTestStore(t)
	loadTestData(t, s)

	m := queryir.Match{Patterns: []queryir.Pattern{{
		Subject:   queryir.Var("sub"),
		Predicate: queryir.Const{Term: subClassOf},
		Object:    queryir.Var("sup"),
		Graph:     queryir.Var("graph"),
	}}}
	tmpl, err := query.FromMatch("edges", m, query.SQL)
	require.NoError(t, err)
	text, err := tmpl.Expand(query.Globals{})
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("unbound input", func(t *testing.T) {
		req, err := tmpl.Prepare(text, ir.EmptyBinding())
		require.NoError(t, err)
		rows, err := s.Select(ctx, req)
		require.NoError(t, err)

		want := []ir.Binding{
			ir.NewBinding(ir.E("sub", ir.IRI("urn:A")), ir.E("sup", ir.IRI("urn:B")), ir.E("graph", ir.IRI("urn:g1"))),
			ir.NewBinding(ir.E("sub", ir.IRI("urn:A")), ir.E("sup", ir.IRI("urn:C")), ir.E("graph", ir.IRI("urn:g2"))),
			ir.NewBinding(ir.E("sub", ir.IRI("urn:B")), ir.E("sup", ir.IRI("urn:C")), ir.E("graph", ir.IRI("urn:g1"))),
		}
		assert.Equal(t, want, rows)
	})

	t.Run("bound input", func(t *testing.T) {
		req, err := tmpl.Prepare(text, ir.NewBinding(ir.E("sub", ir.IRI("urn:B"))))
		require.NoError(t, err)
		rows, err := s.Select(ctx, req)
		require.NoError(t, err)

		require.Len(t, rows, 1)
		sup, _ := rows[0].Get("sup")
		assert.Equal(t, ir.IRI("urn:C"), sup)
	})
}
