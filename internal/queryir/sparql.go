package queryir

import (
	"fmt"
	"strings"
)

// SPARQL renders a match as a SPARQL SELECT query. Variables keep their
// ?name form, so bound input variables are later substituted like any
// hand-written query.
//
// Patterns with a graph node are wrapped in GRAPH blocks; the rest match
// the dataset's default graph.
func SPARQL(m Match) (string, error) {
	if res := Validate(m); !res.Valid() {
		return "", fmt.Errorf("invalid match: %s", strings.Join(res.Errors, "; "))
	}

	var b strings.Builder
	b.WriteString("SELECT DISTINCT")
	for _, v := range m.Projection() {
		b.WriteString(" ?")
		b.WriteString(v)
	}
	b.WriteString("\nWHERE {\n")

	for _, p := range m.Patterns {
		triple := fmt.Sprintf("%s %s %s .", sparqlNode(p.Subject), sparqlNode(p.Predicate), sparqlNode(p.Object))
		if p.Graph != nil {
			fmt.Fprintf(&b, "  GRAPH %s { %s }\n", sparqlNode(p.Graph), triple)
			continue
		}
		fmt.Fprintf(&b, "  %s\n", triple)
	}

	if m.Filter != nil {
		if cond := sparqlPredicate(m.Filter); cond != "" {
			fmt.Fprintf(&b, "  FILTER(%s)\n", cond)
		}
	}
	// Bracketed keys stay valid once a bound variable is substituted.
	b.WriteString("}\nORDER BY")
	for _, v := range m.Projection() {
		b.WriteString(" (?")
		b.WriteString(v)
		b.WriteString(")")
	}
	b.WriteString("\n")
	return b.String(), nil
}

func sparqlNode(n Node) string {
	switch node := n.(type) {
	case Var:
		return "?" + string(node)
	case Const:
		return node.Term.NT()
	}
	return ""
}

func sparqlPredicate(p Predicate) string {
	switch pred := p.(type) {
	case Equals:
		return fmt.Sprintf("sameTerm(?%s, %s)", pred.Var, pred.Value.NT())
	case SameTerm:
		return fmt.Sprintf("sameTerm(?%s, ?%s)", pred.Left, pred.Right)
	case And:
		var parts []string
		for _, sub := range pred.Predicates {
			if s := sparqlPredicate(sub); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " && ")
	}
	return ""
}
