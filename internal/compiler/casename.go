package compiler

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/roach88/ontaudit/internal/engine"
	"github.com/roach88/ontaudit/internal/expr"
	"github.com/roach88/ontaudit/internal/ir"
)

// termValue is how a bound term appears inside a case-name template.
// Printing it yields the term's display form.
type termValue struct {
	ir.Term
}

func (v termValue) String() string { return v.Display() }

func termOf(v any) (ir.Term, error) {
	switch t := v.(type) {
	case termValue:
		return t.Term, nil
	case ir.Term:
		return t, nil
	case string:
		return ir.String(t), nil
	}
	return nil, fmt.Errorf("expected a term, got %T", v)
}

func textFuncs(prefixes ir.Prefixes) template.FuncMap {
	return template.FuncMap{
		"qname": func(v any) (string, error) {
			t, err := termOf(v)
			if err != nil {
				return "", err
			}
			if iri, ok := t.(ir.IRI); ok {
				return prefixes.Compact(string(iri)), nil
			}
			return t.Display(), nil
		},
		"local": func(v any) (string, error) {
			t, err := termOf(v)
			if err != nil {
				return "", err
			}
			return ir.LocalName(t.Display()), nil
		},
		"nt": func(v any) (string, error) {
			t, err := termOf(v)
			if err != nil {
				return "", err
			}
			return t.NT(), nil
		},
	}
}

// bindingText renders case names and failure messages from a binding.
//
//	{{.sub}} subclass of {{qname .sup}}
//
// Fields are the bound variables; referencing an unbound one is an error.
type bindingText struct {
	tmpl *template.Template
}

func parseBindingText(name, text string) (*bindingText, error) {
	tmpl, err := template.New(name).
		Funcs(textFuncs(nil)).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, err
	}
	return &bindingText{tmpl: tmpl}, nil
}

// Render executes the template with qname resolving against prefixes.
func (t *bindingText) Render(prefixes ir.Prefixes, b ir.Binding) (string, error) {
	tmpl, err := t.tmpl.Clone()
	if err != nil {
		return "", err
	}
	tmpl.Funcs(textFuncs(prefixes))

	data := make(map[string]termValue, b.Len())
	for name, term := range b.All() {
		data[name] = termValue{term}
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func caseNamer(text string) (engine.CaseNamer, error) {
	if text == "" {
		return engine.DefaultEvaluator().CaseName, nil
	}
	t, err := parseBindingText("case_name", text)
	if err != nil {
		return nil, err
	}
	return func(env *engine.Env, b ir.Binding) (string, error) {
		return t.Render(env.Prefixes, b)
	}, nil
}

// judge builds the predicate for a rule:
//
//   - no strategy: the audit_case_ok / audit_case_text convention
//   - expr: a boolean expression over the bound variables, with an
//     optional message template
//   - all_true: every listed variable must be the boolean true; failures
//     report the messages of the checks that did not hold
func judge(p ir.PredicateSpec) (engine.Judge, error) {
	switch {
	case p.Expr != "":
		x, err := expr.Compile(p.Expr)
		if err != nil {
			return nil, err
		}
		var message *bindingText
		if p.Message != "" {
			if message, err = parseBindingText("message", p.Message); err != nil {
				return nil, err
			}
		}
		return func(env *engine.Env, b ir.Binding) (bool, string, error) {
			passed, err := x.Bool(b)
			if err != nil || passed || message == nil {
				return passed, "", err
			}
			text, err := message.Render(env.Prefixes, b)
			return false, text, err
		}, nil

	case len(p.AllTrue) > 0:
		checks := p.AllTrue
		return func(_ *engine.Env, b ir.Binding) (bool, string, error) {
			var msgs []string
			for _, c := range checks {
				t, ok := b.Get(c.Var)
				if !ok {
					return false, "", fmt.Errorf("no binding for ?%s in result", c.Var)
				}
				if !ir.IsTrue(t) {
					msgs = append(msgs, c.Message+".")
				}
			}
			if len(msgs) == 0 {
				return true, "", nil
			}
			return false, strings.Join(msgs, " "), nil
		}, nil
	}
	return engine.DefaultJudge, nil
}
