package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/ontaudit/internal/engine"
	"github.com/roach88/ontaudit/internal/expr"
	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
)

// Validation error codes (E200-E299)
const (
	// Rule errors (E200-E209)
	ErrRuleNameEmpty  = "E200" // name is required
	ErrRuleNoStages   = "E201" // at least one stage required
	ErrDuplicateName  = "E202" // duplicate stage or setup table name
	ErrInvalidCase    = "E203" // case_name template does not parse
	ErrInvalidPredict = "E204" // predicate strategy invalid

	// Stage errors (E210-E219)
	ErrStageKind        = "E210" // exactly one of query, match, transform
	ErrUnknownDialect   = "E211" // dialect not sparql or sql
	ErrInvalidQuery     = "E212" // query template does not parse
	ErrInvalidMatch     = "E213" // match patterns malformed
	ErrUnknownTransform = "E214" // transform not registered
	ErrInvalidOptions   = "E215" // transform options rejected

	// Setup errors (E220-E229)
	ErrInvalidSetup = "E220" // table name, rows or query missing
)

// ValidationError represents a rule validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found in one rule.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Validate checks a rule specification. It returns all errors found
// (does not fail-fast). Prefixed names are checked for shape only; the
// Builder resolves them.
func Validate(spec *ir.RuleSpec) []ValidationError {
	v := &validator{}

	// E200: name is required
	if strings.TrimSpace(spec.Name) == "" {
		v.add("name", ErrRuleNameEmpty, "name is required and must be non-empty")
	}

	// E201: at least one stage
	if len(spec.Stages) == 0 {
		v.add("stages", ErrRuleNoStages, "at least one stage is required")
	}

	stageNames := make(map[string]bool)
	for i, st := range spec.Stages {
		field := fmt.Sprintf("stages[%d]", i)
		if st.Name != "" {
			if stageNames[st.Name] {
				v.add(field+".name", ErrDuplicateName, fmt.Sprintf("duplicate stage name: %q", st.Name))
			}
			stageNames[st.Name] = true
		}
		v.validateStage(field, st)
	}

	tables := make(map[string]bool)
	for i, s := range spec.Setup {
		field := fmt.Sprintf("setup[%d]", i)
		if tables[s.Table] {
			v.add(field+".table", ErrDuplicateName, fmt.Sprintf("duplicate setup table: %q", s.Table))
		}
		tables[s.Table] = true
		v.validateSetup(field, s)
	}

	if spec.CaseName != "" {
		if _, err := parseBindingText("case_name", spec.CaseName); err != nil {
			v.add("case_name", ErrInvalidCase, err.Error())
		}
	}
	v.validatePredicate(spec.Predicate)

	return v.errs
}

type validator struct {
	errs []ValidationError
}

func (v *validator) add(field, code, message string) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: message, Code: code})
}

func (v *validator) validateDialect(field, dialect string) {
	if _, err := query.ParseDialect(dialect); err != nil {
		v.add(field+".dialect", ErrUnknownDialect, err.Error())
	}
}

func (v *validator) validateStage(field string, st ir.StageSpec) {
	kind := st.Kind()
	if kind == "" {
		v.add(field, ErrStageKind, "exactly one of query, match or transform is required")
		return
	}
	if kind != ir.StageKindTransform {
		v.validateDialect(field, st.Dialect)
		if len(st.Options) > 0 {
			v.add(field+".options", ErrInvalidOptions, "options apply to transform stages only")
		}
	}

	switch kind {
	case ir.StageKindQuery:
		if _, err := query.NewTemplate(field, st.Query, query.SPARQL); err != nil {
			v.add(field+".query", ErrInvalidQuery, err.Error())
		}
	case ir.StageKindMatch:
		for _, problem := range checkMatch(st.Match) {
			v.add(field+".match", ErrInvalidMatch, problem)
		}
	case ir.StageKindTransform:
		if st.Dialect != "" {
			v.add(field+".dialect", ErrUnknownDialect, "dialect does not apply to transform stages")
		}
		build, ok := engine.LookupTransform(st.Transform)
		if !ok {
			v.add(field+".transform", ErrUnknownTransform,
				fmt.Sprintf("unknown transform %q (known: %s)", st.Transform, strings.Join(engine.Transforms(), ", ")))
			return
		}
		if _, err := build(st.Options); err != nil {
			v.add(field+".options", ErrInvalidOptions, err.Error())
		}
	}
}

func (v *validator) validateSetup(field string, s ir.SetupSpec) {
	if strings.TrimSpace(s.Table) == "" {
		v.add(field+".table", ErrInvalidSetup, "table name is required")
	}
	hasRows, hasQuery := len(s.Rows) > 0, s.Query != ""
	if hasRows == hasQuery {
		v.add(field, ErrInvalidSetup, "exactly one of rows or query is required")
	}
	if hasQuery {
		v.validateDialect(field, s.Dialect)
		if _, err := query.NewTemplate(field, s.Query, query.SPARQL); err != nil {
			v.add(field+".query", ErrInvalidQuery, err.Error())
		}
	}
}

func (v *validator) validatePredicate(p ir.PredicateSpec) {
	if p.Expr != "" && len(p.AllTrue) > 0 {
		v.add("predicate", ErrInvalidPredict, "expr and all_true are mutually exclusive")
	}
	if p.Expr != "" {
		if _, err := expr.Compile(p.Expr); err != nil {
			v.add("predicate.expr", ErrInvalidPredict, err.Error())
		}
	}
	if p.Message != "" {
		if p.Expr == "" {
			v.add("predicate.message", ErrInvalidPredict, "message requires expr")
		} else if _, err := parseBindingText("message", p.Message); err != nil {
			v.add("predicate.message", ErrInvalidPredict, err.Error())
		}
	}
	for i, c := range p.AllTrue {
		if strings.TrimSpace(c.Var) == "" {
			v.add(fmt.Sprintf("predicate.all_true[%d].var", i), ErrInvalidPredict, "variable is required")
		}
		if strings.TrimSpace(c.Message) == "" {
			v.add(fmt.Sprintf("predicate.all_true[%d].message", i), ErrInvalidPredict, "message is required")
		}
	}
}
