package store

import (
	"context"
	"fmt"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
)

var _ query.Service = (*Store)(nil)

// Select implements query.Service for the sql dialect. Each result row
// becomes a binding keyed by column name; NULL columns stay unbound.
//
// Text columns holding N-Triples terms decode to those terms; any other
// text decodes to an xsd:string literal. Integer, real and boolean columns
// decode to xsd:integer, xsd:double and xsd:boolean literals, so aggregates
// such as COUNT(*) are usable in predicates.
func (s *Store) Select(ctx context.Context, req query.Request) ([]ir.Binding, error) {
	if req.Dialect != query.SQL {
		return nil, fmt.Errorf("store cannot run %s queries", req.Dialect)
	}

	rows, err := s.db.QueryContext(ctx, req.Text, req.Args...)
	if err != nil {
		return nil, fmt.Errorf("sql query %s: %w", req.Name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sql query %s: columns: %w", req.Name, err)
	}

	out := []ir.Binding{}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sql query %s: scan: %w", req.Name, err)
		}
		var b ir.Binding
		for i, col := range cols {
			t, err := decodeValue(values[i])
			if err != nil {
				return nil, fmt.Errorf("sql query %s: column %s: %w", req.Name, col, err)
			}
			b = b.With(col, t)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sql query %s: iterate: %w", req.Name, err)
	}
	return out, nil
}

// decodeValue converts a scanned column to a term. A nil term means NULL.
func decodeValue(v any) (ir.Term, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return decodeText(val), nil
	case []byte:
		return decodeText(string(val)), nil
	case int64:
		return ir.Int(val), nil
	case float64:
		return ir.Double(val), nil
	case bool:
		return ir.Bool(val), nil
	}
	return nil, fmt.Errorf("unsupported column type %T", v)
}

func decodeText(s string) ir.Term {
	if s == "" {
		return ir.String("")
	}
	switch s[0] {
	case '<', '"', '_':
		if t, err := ir.ParseTerm(s); err == nil {
			return t
		}
	}
	return ir.String(s)
}
