// Package ir provides the value types shared by every ontaudit package:
// RDF terms, immutable bindings, quads, namespace prefixes and the
// declarative rule-definition types.
//
// This package contains type definitions and pure functions only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Bindings are immutable; derivation always copies
//   - Unbound means absent, never a nil or placeholder term
//   - All JSON tags use snake_case
//   - Content hashes use RFC 8785 canonical JSON with domain separation
package ir
