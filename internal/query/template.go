package query

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/queryir"
	"github.com/roach88/ontaudit/internal/querysql"
)

// Globals is the read-only context a template is expanded against once per
// rule execution.
type Globals struct {
	// Prefixes maps namespace prefixes to namespace IRIs.
	Prefixes ir.Prefixes

	// Graphs holds named graph IRIs by group. The "named" group is the
	// dataset's audited graphs.
	Graphs map[string][]ir.IRI

	// Options are free-form settings available to templates and transforms.
	Options map[string]string
}

// Option returns a named option, or def if unset.
func (g Globals) Option(name, def string) string {
	if v, ok := g.Options[name]; ok {
		return v
	}
	return def
}

// Template is a parsed query in one dialect.
//
// Query text is a text/template. Expansion runs once per execution and may
// use these functions:
//
//	{{ prefixes }}          PREFIX declarations for every known prefix
//	{{ from "named" }}      one FROM <g> line per graph in the group
//	{{ fromNamed "named" }} one FROM NAMED <g> line per graph in the group
//	{{ graphs "named" }}    the group's graphs as space-separated IRIs
//	{{ iri "rdfs:label" }}  a prefixed name expanded to <iri>
//	{{ option "limit" }}    an option value
//
// After expansion, variables bound in the input binding are substituted
// (see Bind). Nested SPARQL groups must be written "{ {" since "{{" opens
// a template action.
type Template struct {
	Name    string
	Dialect Dialect
	Text    string

	// Params are fixed terms passed alongside the input binding. Compiled
	// matches carry their constants here.
	Params ir.Binding

	tmpl *template.Template
}

var stubFuncs = template.FuncMap{
	"prefixes":  func() string { return "" },
	"from":      func(string) string { return "" },
	"fromNamed": func(string) string { return "" },
	"graphs":    func(string) string { return "" },
	"iri":       func(string) (string, error) { return "", nil },
	"option":    func(string) (string, error) { return "", nil },
}

// NewTemplate parses query text.
func NewTemplate(name, text string, d Dialect) (*Template, error) {
	tmpl, err := template.New(name).Funcs(stubFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse query %s: %w", name, err)
	}
	return &Template{Name: name, Dialect: d, Text: text, tmpl: tmpl}, nil
}

// FromMatch compiles a structured match into a template of the given
// dialect.
func FromMatch(name string, m queryir.Match, d Dialect) (*Template, error) {
	switch d {
	case SPARQL:
		text, err := queryir.SPARQL(m)
		if err != nil {
			return nil, fmt.Errorf("compile match %s: %w", name, err)
		}
		return NewTemplate(name, text, d)
	case SQL:
		out, err := querysql.NewSQLCompiler().Compile(m)
		if err != nil {
			return nil, fmt.Errorf("compile match %s: %w", name, err)
		}
		t, err := NewTemplate(name, out.SQL, d)
		if err != nil {
			return nil, err
		}
		t.Params = out.Params
		return t, nil
	}
	return nil, fmt.Errorf("compile match %s: unknown dialect %q", name, d)
}

// Expand renders the template against g.
func (t *Template) Expand(g Globals) (string, error) {
	tmpl, err := t.tmpl.Clone()
	if err != nil {
		return "", fmt.Errorf("expand query %s: %w", t.Name, err)
	}
	tmpl.Funcs(globalFuncs(g))

	var b strings.Builder
	if err := tmpl.Execute(&b, g); err != nil {
		return "", fmt.Errorf("expand query %s: %w", t.Name, err)
	}
	return b.String(), nil
}

// Prepare binds an expanded query text to one input binding.
func (t *Template) Prepare(expanded string, b ir.Binding) (Request, error) {
	req, err := Bind(expanded, t.Dialect, b.Merge(t.Params))
	if err != nil {
		return Request{}, fmt.Errorf("bind query %s: %w", t.Name, err)
	}
	req.Name = t.Name
	return req, nil
}

func globalFuncs(g Globals) template.FuncMap {
	group := func(name string) []ir.IRI {
		return g.Graphs[name]
	}
	lines := func(keyword, name string) string {
		var b strings.Builder
		for _, iri := range group(name) {
			fmt.Fprintf(&b, "%s %s\n", keyword, iri.NT())
		}
		return b.String()
	}
	return template.FuncMap{
		"prefixes": func() string {
			var b strings.Builder
			for _, p := range g.Prefixes.Names() {
				fmt.Fprintf(&b, "PREFIX %s: %s\n", p, ir.IRI(g.Prefixes[p]).NT())
			}
			return b.String()
		},
		"from":      func(name string) string { return lines("FROM", name) },
		"fromNamed": func(name string) string { return lines("FROM NAMED", name) },
		"graphs": func(name string) string {
			var parts []string
			for _, iri := range group(name) {
				parts = append(parts, iri.NT())
			}
			return strings.Join(parts, " ")
		},
		"iri": func(qname string) (string, error) {
			iri, ok := g.Prefixes.Expand(qname)
			if !ok {
				return "", fmt.Errorf("unknown prefixed name %q", qname)
			}
			return iri.NT(), nil
		},
		"option": func(name string) (string, error) {
			v, ok := g.Options[name]
			if !ok {
				return "", fmt.Errorf("option %q is not set", name)
			}
			return v, nil
		},
	}
}
