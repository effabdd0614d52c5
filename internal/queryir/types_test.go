package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ontaudit/internal/ir"
)

const rdfsSubClassOf = ir.IRI("http://www.w3.org/2000/01/rdf-schema#subClassOf")

func subClassMatch() Match {
	return Match{
		Patterns: []Pattern{{
			Subject:   Var("sub"),
			Predicate: Const{rdfsSubClassOf},
			Object:    Var("sup"),
			Graph:     Var("graph"),
		}},
	}
}

func TestNode_SealedInterface(t *testing.T) {
	nodes := []Node{Var("x"), Const{ir.IRI("urn:a")}}

	for _, n := range nodes {
		switch n.(type) {
		case Var, Const:
		default:
			t.Fatalf("unexpected node type %T", n)
		}
	}
}

func TestPredicate_SealedInterface(t *testing.T) {
	preds := []Predicate{
		Equals{Var: "x", Value: ir.String("a")},
		SameTerm{Left: "x", Right: "y"},
		And{},
	}

	for _, p := range preds {
		switch p.(type) {
		case Equals, SameTerm, And:
		default:
			t.Fatalf("unexpected predicate type %T", p)
		}
	}
}

func TestMatch_VarsFirstOccurrenceOrder(t *testing.T) {
	m := Match{
		Patterns: []Pattern{
			{Subject: Var("b"), Predicate: Var("p"), Object: Var("a")},
			{Subject: Var("a"), Predicate: Const{rdfsSubClassOf}, Object: Var("c"), Graph: Var("g")},
		},
	}

	assert.Equal(t, []string{"b", "p", "a", "c", "g"}, m.Vars())
}

func TestMatch_ProjectionDefaultsToVars(t *testing.T) {
	m := subClassMatch()
	assert.Equal(t, []string{"sub", "sup", "graph"}, m.Projection())

	m.Select = []string{"sup"}
	assert.Equal(t, []string{"sup"}, m.Projection())
}

func TestPattern_Positions(t *testing.T) {
	p := Pattern{Subject: Var("s"), Predicate: Var("p"), Object: Var("o")}
	pos := p.Positions()

	assert.Equal(t, Var("s"), pos[0])
	assert.Equal(t, Var("o"), pos[2])
	assert.Nil(t, pos[3])
}
