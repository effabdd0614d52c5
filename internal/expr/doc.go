// Package expr evaluates govaluate expressions over bindings. Rules use it
// for predicate expressions and the filter transform.
package expr
