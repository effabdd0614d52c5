// Package query holds the query boundary of the engine: templates in a
// dialect, their per-execution expansion, per-binding variable substitution
// and the Service interface implemented by the SPARQL client and the local
// quad store.
package query
