package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ontaudit/internal/ir"
)

// ruleFields are the fields a CUE rule struct may declare.
var ruleFields = map[string]bool{
	"name":        true,
	"description": true,
	"setup":       true,
	"stages":      true,
	"predicate":   true,
	"case_name":   true,
}

// CompileCUE parses a CUE rule document. Rules are declared under the
// top-level rule struct, keyed by name, and keep their declaration order:
//
//	rule: "every-class-has-a-label": {
//	    stages: [{query: "SELECT ?c WHERE { ?c a owl:Class }"}]
//	    case_name: "{{qname .c}}"
//	}
func CompileCUE(filename string, src []byte) ([]ir.RuleSpec, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rulesVal := v.LookupPath(cue.ParsePath("rule"))
	if !rulesVal.Exists() {
		return nil, &CompileError{Field: "rule", Message: "no rule struct declared", Pos: v.Pos()}
	}

	iter, err := rulesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	specs := []ir.RuleSpec{}
	for iter.Next() {
		spec, err := CompileRule(iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Source = filename
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileRule parses a CUE value into a RuleSpec. The rule name defaults
// to the struct label.
func CompileRule(v cue.Value) (*ir.RuleSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	fields, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for fields.Next() {
		if label := fields.Label(); !ruleFields[label] {
			return nil, &CompileError{
				Field:   label,
				Message: "unknown rule field",
				Pos:     fields.Value().Pos(),
			}
		}
	}

	if !v.LookupPath(cue.ParsePath("stages")).Exists() {
		return nil, &CompileError{
			Field:   "stages",
			Message: "stages are required",
			Pos:     v.Pos(),
		}
	}

	spec := &ir.RuleSpec{}
	if err := v.Decode(spec); err != nil {
		return nil, formatCUEError(err)
	}

	if spec.Name == "" {
		labels := v.Path().Selectors()
		if len(labels) > 0 {
			spec.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
		}
	}
	return spec, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
