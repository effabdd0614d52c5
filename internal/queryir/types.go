package queryir

import "github.com/roach88/ontaudit/internal/ir"

// Node is one position of a triple pattern.
//
// This is a sealed interface - only Var and Const implement it. The marker
// method pattern prevents external implementations and enables exhaustive
// type switches in backend compilers.
type Node interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition over pattern variables.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: variable = constant term
//   - SameTerm: variable = variable
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Var is a pattern variable, named without the leading '?'.
//
// A Var that is already bound in the input binding acts as a constant for
// that execution; otherwise it is bound by the match.
type Var string

func (Var) queryNode() {}

// Const is a fixed term in a pattern position.
type Const struct {
	Term ir.Term
}

func (Const) queryNode() {}

// Pattern is one triple pattern. Graph is optional; nil matches statements
// in any graph, including the default graph.
//
// Example:
//
//	Pattern{
//	  Subject:   Var("sub"),
//	  Predicate: Const{ir.IRI(rdfs + "subClassOf")},
//	  Object:    Var("sup"),
//	  Graph:     Var("graph"),
//	}
//
// SPARQL mapping:
//
//	GRAPH ?graph { ?sub rdfs:subClassOf ?sup }
type Pattern struct {
	Subject   Node
	Predicate Node
	Object    Node
	Graph     Node
}

// Match is a basic graph pattern query: all patterns must match with
// consistent variable assignments.
//
// Semantics:
//
//	SELECT <select> WHERE { <patterns> FILTER(<filter>) }
//
// Select lists the variables to project, in result order. When empty,
// every pattern variable is projected in first-occurrence order.
type Match struct {
	Patterns []Pattern
	Filter   Predicate
	Select   []string
}

// Equals represents a variable-equals-constant predicate.
//
// SPARQL mapping:
//
//	FILTER(sameTerm(?var, "value"))
type Equals struct {
	Var   string
	Value ir.Term
}

func (Equals) predicateNode() {}

// SameTerm requires two variables to be bound to the same term.
//
// SPARQL mapping:
//
//	FILTER(sameTerm(?left, ?right))
type SameTerm struct {
	Left  string
	Right string
}

func (SameTerm) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// Empty Predicates slice means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Positions returns the pattern's nodes in subject, predicate, object,
// graph order. The graph entry may be nil.
func (p Pattern) Positions() [4]Node {
	return [4]Node{p.Subject, p.Predicate, p.Object, p.Graph}
}

// Vars returns every variable used by the match patterns in
// first-occurrence order.
func (m Match) Vars() []string {
	seen := make(map[string]bool)
	var vars []string
	for _, p := range m.Patterns {
		for _, n := range p.Positions() {
			if v, ok := n.(Var); ok && !seen[string(v)] {
				seen[string(v)] = true
				vars = append(vars, string(v))
			}
		}
	}
	return vars
}

// Projection returns the variables the match produces, in result order.
func (m Match) Projection() []string {
	if len(m.Select) > 0 {
		return m.Select
	}
	return m.Vars()
}
