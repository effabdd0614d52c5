package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/queryir"
)

// checkPosition validates the syntax of one pattern position without
// resolving prefixes.
func checkPosition(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("empty position")
	case strings.HasPrefix(s, "?"), strings.HasPrefix(s, "$"):
		if len(s) == 1 {
			return fmt.Errorf("empty variable name")
		}
		return nil
	case s == "a":
		return nil
	case strings.HasPrefix(s, "<"), strings.HasPrefix(s, `"`), strings.HasPrefix(s, "_:"):
		_, err := ir.ParseTerm(s)
		return err
	case strings.Contains(s, ":"):
		return nil
	}
	return fmt.Errorf("%q is not a variable, term or prefixed name", s)
}

// parsePosition converts one pattern position to a node.
func parsePosition(s string, prefixes ir.Prefixes) (queryir.Node, error) {
	if err := checkPosition(s); err != nil {
		return nil, err
	}
	switch {
	case strings.HasPrefix(s, "?"), strings.HasPrefix(s, "$"):
		return queryir.Var(s[1:]), nil
	case s == "a":
		return queryir.Const{Term: ir.IRI(ir.RDFType)}, nil
	case strings.HasPrefix(s, "<"), strings.HasPrefix(s, `"`), strings.HasPrefix(s, "_:"):
		t, err := ir.ParseTerm(s)
		if err != nil {
			return nil, err
		}
		return queryir.Const{Term: t}, nil
	}
	iri, ok := prefixes.Expand(s)
	if !ok {
		return nil, fmt.Errorf("unknown prefix in %q", s)
	}
	return queryir.Const{Term: iri}, nil
}

// parseValue reads a term written in a rule document: N-Triples syntax, a
// prefixed name, or else a plain string.
func parseValue(s string, prefixes ir.Prefixes) ir.Term {
	if t, err := ir.ParseTerm(s); err == nil {
		return t
	}
	if iri, ok := prefixes.Expand(s); ok {
		return iri
	}
	return ir.String(s)
}

// checkMatch validates a match spec's shape.
func checkMatch(m *ir.MatchSpec) []string {
	var problems []string
	if len(m.Patterns) == 0 {
		problems = append(problems, "at least one pattern is required")
	}
	for i, p := range m.Patterns {
		if len(p) != 3 && len(p) != 4 {
			problems = append(problems, fmt.Sprintf("pattern %d: expected 3 or 4 positions, got %d", i, len(p)))
			continue
		}
		for _, pos := range p {
			if err := checkPosition(pos); err != nil {
				problems = append(problems, fmt.Sprintf("pattern %d: %v", i, err))
			}
		}
	}
	for v := range m.Filter {
		if strings.TrimPrefix(v, "?") == "" {
			problems = append(problems, "filter: empty variable name")
		}
	}
	return problems
}

// buildMatch converts a match spec into a structured query.
func buildMatch(m *ir.MatchSpec, prefixes ir.Prefixes) (queryir.Match, error) {
	var out queryir.Match
	for i, p := range m.Patterns {
		nodes := make([]queryir.Node, 4)
		for j, pos := range p {
			n, err := parsePosition(pos, prefixes)
			if err != nil {
				return queryir.Match{}, fmt.Errorf("pattern %d: %w", i, err)
			}
			nodes[j] = n
		}
		out.Patterns = append(out.Patterns, queryir.Pattern{
			Subject:   nodes[0],
			Predicate: nodes[1],
			Object:    nodes[2],
			Graph:     nodes[3],
		})
	}

	if len(m.Filter) > 0 {
		vars := make([]string, 0, len(m.Filter))
		for v := range m.Filter {
			vars = append(vars, v)
		}
		sort.Strings(vars)

		var and queryir.And
		for _, v := range vars {
			and.Predicates = append(and.Predicates, queryir.Equals{
				Var:   strings.TrimPrefix(v, "?"),
				Value: parseValue(m.Filter[v], prefixes),
			})
		}
		out.Filter = and
	}

	for _, v := range m.Select {
		out.Select = append(out.Select, strings.TrimPrefix(v, "?"))
	}

	if res := queryir.Validate(out); !res.Valid() {
		return queryir.Match{}, fmt.Errorf("%s", strings.Join(res.Errors, "; "))
	}
	return out, nil
}
