// Package store provides the SQLite-backed local store.
//
// The store holds:
//   - Quads: RDF statements loaded from N-Triples / N-Quads, queried by rules
//     in the sql and match dialects
//   - Runs: one record per recorded rule execution
//   - Cases: the judged cases of each run, in evaluation order
//
// # Conventions
//
// Terms are stored in N-Triples form, so SQL equality is RDF term identity.
// The default graph is stored as the empty string.
//
// Run history ordering uses seq INTEGER (a logical clock), never
// timestamps. All history queries ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Case IDs are content-addressed via ir.CaseID (canonical JSON and SHA-256
// with domain separation).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
