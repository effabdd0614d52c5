package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontaudit/internal/ir"
)

func validSpec() *ir.RuleSpec {
	return &ir.RuleSpec{
		Name: "labels",
		Stages: []ir.StageSpec{
			{Name: "classes", Query: "SELECT ?c WHERE { ?c a owl:Class }"},
			{Transform: "distinct"},
		},
		CaseName: "{{qname .c}}",
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	errs := Validate(validSpec())
	assert.Empty(t, errs, "valid spec should have no errors")
}

func TestValidateValidWithEverything(t *testing.T) {
	spec := &ir.RuleSpec{
		Name: "full",
		Setup: []ir.SetupSpec{
			{Table: "owners", Rows: []map[string]string{{"key": "ex:a", "owner": "alice"}}},
			{Table: "graphs", Query: "SELECT ?g WHERE { GRAPH ?g {} }", Dialect: "sparql"},
		},
		Stages: []ir.StageSpec{
			{Match: &ir.MatchSpec{
				Patterns: [][]string{{"?sub", "rdfs:subClassOf", "?sup", "?graph"}},
				Filter:   map[string]string{"?sup": "owl:Thing"},
			}, Dialect: "sql"},
			{Transform: "lookup", Options: map[string]string{"table": "owners", "key": "key", "on": "sub", "optional": "true"}},
		},
		Predicate: ir.PredicateSpec{Expr: "bound(owner)", Message: "{{.sub}} has no owner"},
	}

	errs := Validate(spec)
	assert.Empty(t, errs)
}

func TestValidateMissingName(t *testing.T) {
	spec := validSpec()
	spec.Name = "  "

	errs := Validate(spec)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrRuleNameEmpty, errs[0].Code)
	assert.Equal(t, "name", errs[0].Field)
}

func TestValidateNoStages(t *testing.T) {
	spec := validSpec()
	spec.Stages = nil

	errs := Validate(spec)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrRuleNoStages, errs[0].Code)
}

func TestValidateReportsAllErrors(t *testing.T) {
	spec := &ir.RuleSpec{
		Stages: []ir.StageSpec{
			{},
			{Query: "SELECT ?x WHERE {}", Transform: "pass"},
			{Transform: "nope"},
		},
	}

	errs := Validate(spec)
	assert.Equal(t, []string{ErrRuleNameEmpty, ErrStageKind, ErrStageKind, ErrUnknownTransform}, codes(errs))
	assert.Equal(t, "stages[2].transform", errs[3].Field)
	assert.Contains(t, errs[3].Message, "distinct")
}

func TestValidateStages(t *testing.T) {
	tests := []struct {
		name  string
		stage ir.StageSpec
		code  string
		field string
	}{
		{
			name:  "unknown dialect",
			stage: ir.StageSpec{Query: "SELECT ?x WHERE {}", Dialect: "gremlin"},
			code:  ErrUnknownDialect,
			field: "stages[0].dialect",
		},
		{
			name:  "bad template",
			stage: ir.StageSpec{Query: "SELECT ?x WHERE { {{ prefixes }"},
			code:  ErrInvalidQuery,
			field: "stages[0].query",
		},
		{
			name:  "options on query",
			stage: ir.StageSpec{Query: "SELECT ?x WHERE {}", Options: map[string]string{"a": "b"}},
			code:  ErrInvalidOptions,
			field: "stages[0].options",
		},
		{
			name:  "dialect on transform",
			stage: ir.StageSpec{Transform: "pass", Dialect: "sql"},
			code:  ErrUnknownDialect,
			field: "stages[0].dialect",
		},
		{
			name:  "bad transform options",
			stage: ir.StageSpec{Transform: "group", Options: map[string]string{"by": "x"}},
			code:  ErrInvalidOptions,
			field: "stages[0].options",
		},
		{
			name:  "empty match",
			stage: ir.StageSpec{Match: &ir.MatchSpec{}},
			code:  ErrInvalidMatch,
			field: "stages[0].match",
		},
		{
			name:  "short pattern",
			stage: ir.StageSpec{Match: &ir.MatchSpec{Patterns: [][]string{{"?s", "?p"}}}},
			code:  ErrInvalidMatch,
			field: "stages[0].match",
		},
		{
			name:  "bad position",
			stage: ir.StageSpec{Match: &ir.MatchSpec{Patterns: [][]string{{"?s", "label", "?o"}}}},
			code:  ErrInvalidMatch,
			field: "stages[0].match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := &ir.RuleSpec{Name: "r", Stages: []ir.StageSpec{tt.stage}}
			errs := Validate(spec)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateDuplicateNames(t *testing.T) {
	spec := validSpec()
	spec.Stages = append(spec.Stages, ir.StageSpec{Name: "classes", Transform: "pass"})
	spec.Setup = []ir.SetupSpec{
		{Table: "t", Rows: []map[string]string{{"a": "1"}}},
		{Table: "t", Rows: []map[string]string{{"a": "2"}}},
	}

	errs := Validate(spec)
	assert.Equal(t, []string{ErrDuplicateName, ErrDuplicateName}, codes(errs))
	assert.Equal(t, "stages[2].name", errs[0].Field)
	assert.Equal(t, "setup[1].table", errs[1].Field)
}

func TestValidateSetup(t *testing.T) {
	tests := []struct {
		name  string
		setup ir.SetupSpec
		codes []string
	}{
		{"no table", ir.SetupSpec{Rows: []map[string]string{{"a": "1"}}}, []string{ErrInvalidSetup}},
		{"neither", ir.SetupSpec{Table: "t"}, []string{ErrInvalidSetup}},
		{"both", ir.SetupSpec{Table: "t", Rows: []map[string]string{{"a": "1"}}, Query: "SELECT ?a WHERE {}"}, []string{ErrInvalidSetup}},
		{"bad dialect", ir.SetupSpec{Table: "t", Query: "SELECT ?a WHERE {}", Dialect: "xquery"}, []string{ErrUnknownDialect}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			spec.Setup = []ir.SetupSpec{tt.setup}
			assert.Equal(t, tt.codes, codes(Validate(spec)))
		})
	}
}

func TestValidatePredicate(t *testing.T) {
	tests := []struct {
		name  string
		pred  ir.PredicateSpec
		field string
	}{
		{"bad expr", ir.PredicateSpec{Expr: "x >"}, "predicate.expr"},
		{"message without expr", ir.PredicateSpec{Message: "oops"}, "predicate.message"},
		{"bad message", ir.PredicateSpec{Expr: "ok", Message: "{{.x"}, "predicate.message"},
		{"empty check var", ir.PredicateSpec{AllTrue: []ir.Check{{Message: "m"}}}, "predicate.all_true[0].var"},
		{"empty check message", ir.PredicateSpec{AllTrue: []ir.Check{{Var: "v"}}}, "predicate.all_true[0].message"},
		{"both strategies", ir.PredicateSpec{Expr: "ok", AllTrue: []ir.Check{{Var: "v", Message: "m"}}}, "predicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			spec.Predicate = tt.pred
			errs := Validate(spec)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, ErrInvalidPredict, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateCaseName(t *testing.T) {
	spec := validSpec()
	spec.CaseName = "{{ .c "

	errs := Validate(spec)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrInvalidCase, errs[0].Code)
}

func TestValidationErrorsError(t *testing.T) {
	errs := ValidationErrors{
		{Field: "name", Message: "name is required", Code: ErrRuleNameEmpty},
		{Field: "stages", Message: "none", Code: ErrRuleNoStages},
	}
	assert.Equal(t, "[E200] name: name is required; [E201] stages: none", errs.Error())
}
