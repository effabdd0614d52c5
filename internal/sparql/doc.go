// Package sparql is a minimal SPARQL 1.1 protocol client for SELECT
// queries. It sends queries as form-encoded POSTs and decodes
// application/sparql-results+json responses into bindings.
package sparql
