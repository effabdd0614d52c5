package sparql

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/ontaudit/internal/ir"
)

// Results is the SPARQL 1.1 query results JSON document.
type Results struct {
	Head *struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]Value `json:"bindings"`
	} `json:"results"`
}

// ParseResults decodes a results document. A body without a head, such
// as an error page or a boolean ASK result, is rejected.
func ParseResults(body []byte) (Results, error) {
	var r Results
	if err := json.Unmarshal(body, &r); err != nil {
		return Results{}, fmt.Errorf("decode results: %w; body: %s", err, excerpt(body))
	}
	if r.Head == nil || r.Head.Vars == nil {
		return Results{}, fmt.Errorf("decode results: missing head.vars; body: %s", excerpt(body))
	}
	return r, nil
}

// Value is one RDF term in a results document.
type Value struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Term converts the value to an ir.Term.
func (v Value) Term() (ir.Term, error) {
	switch v.Type {
	case "uri":
		return ir.IRI(v.Value), nil
	case "bnode":
		return ir.Blank(v.Value), nil
	case "literal", "typed-literal":
		if v.Lang != "" {
			return ir.NewLangLiteral(v.Value, v.Lang), nil
		}
		return ir.NewLiteral(v.Value, v.Datatype), nil
	}
	return nil, fmt.Errorf("unknown term type %q", v.Type)
}

// Bindings converts every result row to a binding. Variables follow the
// order of head.vars; variables missing from a row stay unbound.
func (r Results) Bindings() ([]ir.Binding, error) {
	rows := make([]ir.Binding, 0, len(r.Results.Bindings))
	for i, row := range r.Results.Bindings {
		var b ir.Binding
		if r.Head == nil {
			return nil, fmt.Errorf("row %d: results have no head", i)
		}
		for _, name := range r.Head.Vars {
			v, ok := row[name]
			if !ok {
				continue
			}
			t, err := v.Term()
			if err != nil {
				return nil, fmt.Errorf("row %d, ?%s: %w", i, name, err)
			}
			b = b.With(name, t)
		}
		rows = append(rows, b)
	}
	return rows, nil
}
