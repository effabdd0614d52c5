package query

import (
	"fmt"
	"strings"
)

// Dialect names the query language of a template and selects the Service
// that runs it.
type Dialect string

const (
	// SPARQL is SPARQL 1.1 SELECT, sent to a remote endpoint.
	SPARQL Dialect = "sparql"

	// SQL is SQLite SQL over the local quad store.
	SQL Dialect = "sql"
)

// ParseDialect parses a dialect name. The empty string means SPARQL.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case "", SPARQL:
		return SPARQL, nil
	case SQL:
		return SQL, nil
	}
	return "", fmt.Errorf("unknown query dialect %q (want sparql or sql)", s)
}
