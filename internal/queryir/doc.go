// Package queryir provides a structured triple-pattern query representation
// for rule stages that do not need hand-written query text.
//
// QueryIR is the abstraction boundary between rule definitions and the two
// query backends. The same Match compiles to SQL over the local quad store
// (package querysql) or renders to SPARQL for a remote endpoint:
//
//	[match spec] → [Match] → [querysql]  → SQLite quads table
//	                       → [SPARQL()] → SPARQL endpoint
//
// FRAGMENT:
//
// The fragment includes:
//   - Match(patterns, filter, select) - basic graph pattern with projection
//   - Nodes: Var, Const
//   - Predicates: Equals, SameTerm, And
//
// The fragment EXCLUDES:
//   - OPTIONAL / outer joins
//   - Aggregations (use a group transform stage instead)
//   - OR predicates and subqueries
//
// SEALED INTERFACES:
//
// Node and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, which lets backends use
// exhaustive type switches:
//
//	switch n := node.(type) {
//	case queryir.Var:
//	    // bind or parameterize
//	case queryir.Const:
//	    // compare to a fixed term
//	}
//
// Results are always deterministic: both backends order rows by the
// projected variables.
package queryir
