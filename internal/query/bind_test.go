package query

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontaudit/internal/ir"
)

func TestBind_SPARQL(t *testing.T) {
	b := ir.NewBinding(
		ir.E("x", ir.IRI("urn:x")),
		ir.E("label", ir.NewLangLiteral("chat", "fr")),
	)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bound variables",
			in:   "SELECT ?y WHERE { ?x ?p ?y . $x <urn:l> ?label }",
			want: `SELECT ?y WHERE { <urn:x> ?p ?y . <urn:x> <urn:l> "chat"@fr }`,
		},
		{
			name: "bound projection aliased",
			in:   "SELECT DISTINCT ?x ?y (COUNT(?x) AS ?n) WHERE { ?x ?p ?y }",
			want: "SELECT DISTINCT (<urn:x> AS ?x) ?y (COUNT(<urn:x>) AS ?n) WHERE { <urn:x> ?p ?y }",
		},
		{
			name: "subquery projection",
			in:   "SELECT ?y { { SELECT ?x ?y { ?x ?p ?y } } }",
			want: "SELECT ?y { { SELECT (<urn:x> AS ?x) ?y { <urn:x> ?p ?y } } }",
		},
		{
			name: "longer names untouched",
			in:   "?x ?xy ?x_2",
			want: "<urn:x> ?xy ?x_2",
		},
		{
			name: "strings untouched",
			in:   `FILTER(?x != "?x" && ?x != '?x')`,
			want: `FILTER(<urn:x> != "?x" && <urn:x> != '?x')`,
		},
		{
			name: "long strings untouched",
			in:   `"""a "?x" b""" ?x`,
			want: `"""a "?x" b""" <urn:x>`,
		},
		{
			name: "iris untouched",
			in:   "<http://example.org/?x=1> ?x",
			want: "<http://example.org/?x=1> <urn:x>",
		},
		{
			name: "less-than operator",
			in:   "FILTER(?n < ?x)",
			want: "FILTER(?n < <urn:x>)",
		},
		{
			name: "comments untouched",
			in:   "# uses ?x\n?x",
			want: "# uses ?x\n<urn:x>",
		},
		{
			name: "keyword as prefixed name",
			in:   "SELECT ?y WHERE { ?x ex:select ?label . where:from ?p ?x }",
			want: `SELECT ?y WHERE { <urn:x> ex:select "chat"@fr . where:from ?p <urn:x> }`,
		},
		{
			name: "bare question mark",
			in:   "?x <urn:p>? ?",
			want: "<urn:x> <urn:p>? ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Bind(tt.in, SPARQL, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Text)
			assert.Empty(t, req.Args)
		})
	}
}

func TestBind_SPARQLEmptyBinding(t *testing.T) {
	req, err := Bind("SELECT ?x WHERE { ?x ?p ?o }", SPARQL, ir.EmptyBinding())
	require.NoError(t, err)
	assert.Equal(t, "SELECT ?x WHERE { ?x ?p ?o }", req.Text)
}

func TestBind_SQL(t *testing.T) {
	b := ir.NewBinding(ir.E("x", ir.Int(1)))

	req, err := Bind("SELECT object FROM quads WHERE subject = :x OR object = :y OR subject = :x -- :z\n AND ':w' <> '' AND CAST(1 AS TEXT)::text IS NOT NULL", SQL, b)
	require.NoError(t, err)

	assert.Equal(t, []any{
		sql.Named("x", `"1"^^<http://www.w3.org/2001/XMLSchema#integer>`),
		sql.Named("y", nil),
	}, req.Args)
}

func TestSQLParams(t *testing.T) {
	assert.Equal(t, []string{"a", "b_1"}, SQLParams(`SELECT :a, ":q", :b_1, :a`))
	assert.Nil(t, SQLParams("SELECT 1"))
}

func TestBind_UnknownDialect(t *testing.T) {
	_, err := Bind("x", Dialect("cypher"), ir.EmptyBinding())
	require.Error(t, err)
}
