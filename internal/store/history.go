package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/report"
)

// RunRecord is one recorded rule execution.
type RunRecord struct {
	ID            string
	Seq           int64
	Rule          string
	Cases         int
	Failures      int
	EngineVersion string
}

// CaseRecord is one recorded case of a run.
type CaseRecord struct {
	ID      string
	RunID   string
	Seq     int64
	Name    string
	Passed  bool
	Message string
}

// RecordSuite appends a completed suite to the run history and returns its
// sequence number. Recording the same run id twice is a no-op that returns
// the original sequence number.
//
// Sequence numbers are a logical clock: one more than the highest recorded.
func (s *Store) RecordSuite(ctx context.Context, suite *report.Suite) (int64, error) {
	if suite.RunID == "" {
		return 0, fmt.Errorf("record suite %s: missing run id", suite.Name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("record suite: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, suite.RunID).Scan(&seq)
	switch {
	case err == nil:
		return seq, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("record suite: lookup run: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("record suite: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, rule, cases, failures, engine_version)
		VALUES (?, ?, ?, ?, ?, ?)
	`, suite.RunID, seq, suite.Name, len(suite.Cases), suite.Failures(), ir.EngineVersion)
	if err != nil {
		return 0, fmt.Errorf("record suite: insert run: %w", err)
	}

	for i, c := range suite.Cases {
		id, err := ir.CaseID(suite.RunID, suite.Name, c.Name, int64(i))
		if err != nil {
			return 0, fmt.Errorf("record suite: case id: %w", err)
		}
		var msg sql.NullString
		if c.Failure != nil {
			msg = sql.NullString{String: c.Failure.Message, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cases (id, run_id, seq, name, passed, message)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, suite.RunID, i, c.Name, c.Passed(), msg)
		if err != nil {
			return 0, fmt.Errorf("record suite: insert case: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record suite: commit: %w", err)
	}
	return seq, nil
}

// ReadRuns returns recorded runs ordered by sequence number. An empty rule
// returns runs of every rule.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ReadRuns(ctx context.Context, rule string) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, rule, cases, failures, engine_version
		FROM runs
		WHERE ? = '' OR rule = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, rule, rule)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.Seq, &r.Rule, &r.Cases, &r.Failures, &r.EngineVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadCases returns the cases of a run in evaluation order.
//
// Returns an empty slice (not nil) if the run has no cases.
func (s *Store) ReadCases(ctx context.Context, runID string) ([]CaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, seq, name, passed, message
		FROM cases
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	cases := []CaseRecord{}
	for rows.Next() {
		var c CaseRecord
		var msg sql.NullString
		if err := rows.Scan(&c.ID, &c.RunID, &c.Seq, &c.Name, &c.Passed, &msg); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c.Message = msg.String
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}
