package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/queryir"
)

// ParamPrefix prefixes the named parameters that carry pattern constants.
// Rule variables must not start with it.
const ParamPrefix = "__c"

// DefaultTable is the quad table created by the store schema.
const DefaultTable = "quads"

var columns = [4]string{"subject", "predicate", "object", "graph"}

// SQLCompiler compiles a triple-pattern Match to parameterized SQL over the
// quad table.
//
// Every term is stored in its N-Triples form, so comparisons are exact term
// identity. The default graph is stored as the empty string.
//
// CRITICAL: ALL queries include ORDER BY for deterministic results.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct {
	// Table is the quad table name. Defaults to DefaultTable.
	Table string
}

// Compiled is the output of Compile.
//
// SQL uses ":name" placeholders. Pattern variables appear as ":var" guarded
// by "IS NULL", so the same statement runs with or without an input value
// for the variable. Constants appear as ":__cN" and their terms are carried
// in Params.
type Compiled struct {
	SQL     string
	Params  ir.Binding
	Columns []string
}

// NewSQLCompiler creates a new SQLCompiler over the default quad table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: DefaultTable}
}

// Compile converts a Match to parameterized SQL.
//
// MANDATORY: Every query includes ORDER BY over the projected columns.
// MANDATORY: All values are parameterized (never interpolated).
func (c *SQLCompiler) Compile(m queryir.Match) (Compiled, error) {
	if res := queryir.Validate(m); !res.Valid() {
		return Compiled{}, fmt.Errorf("invalid match: %s", strings.Join(res.Errors, "; "))
	}
	for _, v := range m.Vars() {
		if strings.HasPrefix(v, ParamPrefix) {
			return Compiled{}, fmt.Errorf("variable ?%s uses reserved prefix %q", v, ParamPrefix)
		}
	}

	table := c.Table
	if table == "" {
		table = DefaultTable
	}

	s := &compileState{first: make(map[string]string)}
	var from []string
	for i, p := range m.Patterns {
		alias := fmt.Sprintf("q%d", i)
		from = append(from, table+" "+alias)
		for j, n := range p.Positions() {
			s.compileNode(alias+"."+columns[j], j == 3, n)
		}
	}

	if m.Filter != nil {
		cond, err := s.compilePredicate(m.Filter)
		if err != nil {
			return Compiled{}, fmt.Errorf("compile filter: %w", err)
		}
		if cond != "" {
			s.where = append(s.where, cond)
		}
	}

	proj := m.Projection()
	sel := make([]string, len(proj))
	order := make([]string, len(proj))
	for i, v := range proj {
		sel[i] = fmt.Sprintf("%s AS %q", s.first[v], v)
		order[i] = fmt.Sprintf("%q COLLATE BINARY", v)
	}

	var b strings.Builder
	b.WriteString("SELECT DISTINCT ")
	b.WriteString(strings.Join(sel, ", "))
	b.WriteString("\nFROM ")
	b.WriteString(strings.Join(from, ", "))
	for i, w := range s.where {
		if i == 0 {
			b.WriteString("\nWHERE ")
		} else {
			b.WriteString("\n  AND ")
		}
		b.WriteString(w)
	}
	// MANDATORY: Always add ORDER BY
	b.WriteString("\nORDER BY ")
	b.WriteString(strings.Join(order, ", "))

	return Compiled{SQL: b.String(), Params: s.params, Columns: proj}, nil
}

type compileState struct {
	first  map[string]string // variable -> column of its first occurrence
	where  []string
	params ir.Binding
}

func (s *compileState) constParam(t ir.Term) string {
	name := fmt.Sprintf("%s%d", ParamPrefix, s.params.Len())
	s.params = s.params.With(name, t)
	return ":" + name
}

func (s *compileState) compileNode(col string, graph bool, n queryir.Node) {
	switch node := n.(type) {
	case nil:
		// Unconstrained graph: any graph, including the default graph.
	case queryir.Var:
		name := string(node)
		if prev, ok := s.first[name]; ok {
			s.where = append(s.where, prev+" = "+col)
		} else {
			s.first[name] = col
			s.where = append(s.where, fmt.Sprintf("(:%s IS NULL OR %s = :%s)", name, col, name))
		}
		if graph {
			s.where = append(s.where, col+" <> ''")
		}
	case queryir.Const:
		s.where = append(s.where, col+" = "+s.constParam(node.Term))
	}
}

// compilePredicate compiles a filter to a WHERE fragment. An empty And
// compiles to the empty string (always true).
// CRITICAL: Values NEVER interpolated - always named parameters.
func (s *compileState) compilePredicate(p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return s.first[pred.Var] + " = " + s.constParam(pred.Value), nil
	case queryir.SameTerm:
		return s.first[pred.Left] + " = " + s.first[pred.Right], nil
	case queryir.And:
		var parts []string
		for _, sub := range pred.Predicates {
			sql, err := s.compilePredicate(sub)
			if err != nil {
				return "", err
			}
			if sql != "" {
				parts = append(parts, sql)
			}
		}
		return strings.Join(parts, " AND "), nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}
