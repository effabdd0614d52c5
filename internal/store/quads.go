package store

import (
	"context"
	"fmt"
	"io"

	"github.com/roach88/ontaudit/internal/ir"
)

func graphColumn(g ir.IRI) string {
	if g == "" {
		return ""
	}
	return g.NT()
}

// InsertQuads adds statements to the quad table and returns how many were
// new. Duplicates are silently ignored.
func (s *Store) InsertQuads(ctx context.Context, quads []ir.Quad) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert quads: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO quads (graph, subject, predicate, object)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("insert quads: prepare: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, q := range quads {
		res, err := stmt.ExecContext(ctx, graphColumn(q.Graph), q.Subject.NT(), q.Predicate.NT(), q.Object.NT())
		if err != nil {
			return 0, fmt.Errorf("insert quads: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert quads: rows affected: %w", err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert quads: commit: %w", err)
	}
	return inserted, nil
}

// LoadNTriples reads N-Triples or N-Quads from r into the quad table.
// Triples without a graph are placed in graph; an empty graph means the
// default graph.
func (s *Store) LoadNTriples(ctx context.Context, r io.Reader, graph ir.IRI) (int64, error) {
	quads, err := ir.ReadQuads(r, graph)
	if err != nil {
		return 0, fmt.Errorf("load n-triples: %w", err)
	}
	return s.InsertQuads(ctx, quads)
}

// CountQuads returns the number of stored statements.
func (s *Store) CountQuads(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count quads: %w", err)
	}
	return n, nil
}

// Graphs returns the named graphs that hold at least one statement, in
// binary order.
func (s *Store) Graphs(ctx context.Context) ([]ir.IRI, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT graph FROM quads
		WHERE graph <> ''
		ORDER BY graph COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	defer rows.Close()

	graphs := []ir.IRI{}
	for rows.Next() {
		var nt string
		if err := rows.Scan(&nt); err != nil {
			return nil, fmt.Errorf("scan graph: %w", err)
		}
		t, err := ir.ParseTerm(nt)
		if err != nil {
			return nil, fmt.Errorf("decode graph %q: %w", nt, err)
		}
		iri, ok := t.(ir.IRI)
		if !ok {
			return nil, fmt.Errorf("graph %q is not an IRI", nt)
		}
		graphs = append(graphs, iri)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate graphs: %w", err)
	}
	return graphs, nil
}
