package queryir

import (
	"fmt"

	"github.com/roach88/ontaudit/internal/ir"
)

// ValidationResult contains the problems found in a match.
//
// Errors make a match unusable by any backend. Warnings flag patterns that
// are legal but can never match (e.g. a literal in subject position).
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the match has no errors.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Validate checks a match against the rules every backend relies on:
//  1. At least one pattern
//  2. Subject, predicate and object positions are present
//  3. Constant predicates and graphs are IRIs
//  4. Selected and filtered variables appear in some pattern
//
// Validate is a pure function with no side effects.
func Validate(m Match) ValidationResult {
	v := &validator{}
	v.validateMatch(m)
	return ValidationResult{Errors: v.errors, Warnings: v.warnings}
}

type validator struct {
	errors   []string
	warnings []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateMatch(m Match) {
	if len(m.Patterns) == 0 {
		v.addError("match requires at least one pattern")
		return
	}

	for i, p := range m.Patterns {
		v.validatePattern(i, p)
	}

	vars := make(map[string]bool)
	for _, name := range m.Vars() {
		vars[name] = true
	}
	for _, name := range m.Select {
		if !vars[name] {
			v.addError("selected variable ?%s does not appear in any pattern", name)
		}
	}
	if m.Filter != nil {
		v.validatePredicate(m.Filter, vars)
	}
}

func (v *validator) validatePattern(i int, p Pattern) {
	names := [4]string{"subject", "predicate", "object", "graph"}
	for j, n := range p.Positions() {
		if n == nil {
			if j < 3 {
				v.addError("pattern %d: missing %s", i, names[j])
			}
			continue
		}
		switch node := n.(type) {
		case Var:
			if node == "" {
				v.addError("pattern %d: empty variable name in %s", i, names[j])
			}
		case Const:
			v.validateConst(i, names[j], node)
		default:
			v.addError("pattern %d: unknown node type %T", i, n)
		}
	}
}

func (v *validator) validateConst(i int, position string, c Const) {
	if c.Term == nil {
		v.addError("pattern %d: nil constant in %s", i, position)
		return
	}
	switch position {
	case "predicate", "graph":
		if _, ok := c.Term.(ir.IRI); !ok {
			v.addError("pattern %d: %s must be an IRI, got %s", i, position, c.Term.NT())
		}
	case "subject":
		if _, ok := c.Term.(ir.Literal); ok {
			v.addWarning("pattern %d: literal subject %s never matches", i, c.Term.NT())
		}
	}
}

func (v *validator) validatePredicate(p Predicate, vars map[string]bool) {
	switch pred := p.(type) {
	case Equals:
		if !vars[pred.Var] {
			v.addError("filter variable ?%s does not appear in any pattern", pred.Var)
		}
		if pred.Value == nil {
			v.addError("filter on ?%s compares to nil", pred.Var)
		}
	case SameTerm:
		for _, name := range []string{pred.Left, pred.Right} {
			if !vars[name] {
				v.addError("filter variable ?%s does not appear in any pattern", name)
			}
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, vars)
		}
	case nil:
	default:
		v.addError("unknown predicate type: %T", p)
	}
}
