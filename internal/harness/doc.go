// Package harness provides conformance testing for audit rules.
//
// A scenario pins a small dataset, the rule files to run over it, and the
// outcomes those rules must produce. The harness loads the data into a
// fresh in-memory store, runs the rules as a battery with deterministic
// run ids, and evaluates the assertions against the report.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: subclass-reduction
//	description: "Redundant subclass axioms fail"
//	rules:
//	  - rules/reduction.yaml
//	prefixes:
//	  ex: http://example.org/
//	data: |
//	  <http://example.org/A> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://example.org/B> <http://example.org/g1> .
//	data_files:
//	  - data/more.nq
//	assertions:
//	  - type: case_fails
//	    rule: reduction
//	    case: "A < C"
//	    message: "Asserted in http://example.org/g2."
//	  - type: case_count
//	    rule: reduction
//	    count: 3
//
// Rules query the in-memory store, so their stages use the sql dialect.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - case_passes: the named case of a rule passed
//   - case_fails: the named case failed, optionally with an exact message
//   - case_count: a rule produced exactly N cases
//   - suite_order: rules ran in the specified order
//
// # Golden Files
//
// RunWithGolden compares the flattened case list, as canonical JSON,
// against testdata/golden/<scenario>.golden.
package harness
