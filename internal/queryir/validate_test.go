package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontaudit/internal/ir"
)

func TestValidate_ValidMatch(t *testing.T) {
	result := Validate(subClassMatch())

	assert.True(t, result.Valid())
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidate_NoPatterns(t *testing.T) {
	result := Validate(Match{})

	assert.False(t, result.Valid())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "at least one pattern")
}

func TestValidate_MissingPosition(t *testing.T) {
	result := Validate(Match{Patterns: []Pattern{{Subject: Var("s"), Object: Var("o")}}})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "pattern 0: missing predicate", result.Errors[0])
}

func TestValidate_EmptyVarName(t *testing.T) {
	result := Validate(Match{Patterns: []Pattern{{Subject: Var(""), Predicate: Var("p"), Object: Var("o")}}})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "empty variable name in subject")
}

func TestValidate_PredicateMustBeIRI(t *testing.T) {
	result := Validate(Match{Patterns: []Pattern{{
		Subject:   Var("s"),
		Predicate: Const{ir.String("p")},
		Object:    Var("o"),
	}}})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "predicate must be an IRI")
}

func TestValidate_GraphMustBeIRI(t *testing.T) {
	result := Validate(Match{Patterns: []Pattern{{
		Subject:   Var("s"),
		Predicate: Var("p"),
		Object:    Var("o"),
		Graph:     Const{ir.Blank("g")},
	}}})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "graph must be an IRI")
}

func TestValidate_NilConst(t *testing.T) {
	result := Validate(Match{Patterns: []Pattern{{Subject: Const{}, Predicate: Var("p"), Object: Var("o")}}})

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "nil constant in subject")
}

func TestValidate_LiteralSubjectWarns(t *testing.T) {
	result := Validate(Match{Patterns: []Pattern{{
		Subject:   Const{ir.Int(1)},
		Predicate: Var("p"),
		Object:    Var("o"),
	}}})

	assert.True(t, result.Valid())
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "never matches")
}

func TestValidate_UnknownSelectVar(t *testing.T) {
	m := subClassMatch()
	m.Select = []string{"sub", "missing"}

	result := Validate(m)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "?missing")
}

func TestValidate_FilterVars(t *testing.T) {
	m := subClassMatch()
	m.Filter = And{Predicates: []Predicate{
		Equals{Var: "sub", Value: ir.IRI("urn:a")},
		SameTerm{Left: "sup", Right: "nope"},
		Equals{Var: "unknown", Value: ir.IRI("urn:b")},
	}}

	result := Validate(m)

	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "?nope")
	assert.Contains(t, result.Errors[1], "?unknown")
}

func TestValidate_EqualsNilValue(t *testing.T) {
	m := subClassMatch()
	m.Filter = Equals{Var: "sub"}

	result := Validate(m)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "compares to nil")
}

func TestValidate_Idempotent(t *testing.T) {
	m := Match{Patterns: []Pattern{{Subject: Var("s")}}}

	assert.Equal(t, Validate(m), Validate(m))
}
