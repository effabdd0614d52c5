package engine

import (
	"context"
	"fmt"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/metrics"
	"github.com/roach88/ontaudit/internal/query"
)

// Env is the per-execution context shared by the stages of one rule run.
//
// An Env is created fresh for every execution and discarded when it ends,
// so no accumulated state survives between runs. Lookup tables are written
// only by setup hooks; the engine freezes the Env before any stage worker
// starts, after which it is read-only and safe to share without locking.
type Env struct {
	query.Globals

	Rule  string
	RunID string
	Seq   int64

	tables  map[string][]ir.Binding
	frozen  bool
	metrics *metrics.Metrics
}

// NewEnv creates an empty execution environment.
func NewEnv(rule, runID string, seq int64, g query.Globals) *Env {
	return &Env{
		Globals: g,
		Rule:    rule,
		RunID:   runID,
		Seq:     seq,
		tables:  make(map[string][]ir.Binding),
	}
}

// SetTable stores a named lookup table. It fails once the Env is frozen.
func (e *Env) SetTable(name string, rows []ir.Binding) error {
	if e.frozen {
		return fmt.Errorf("table %q: environment is read-only once stages start", name)
	}
	e.tables[name] = rows
	return nil
}

// Table returns a lookup table populated during setup.
func (e *Env) Table(name string) ([]ir.Binding, bool) {
	rows, ok := e.tables[name]
	return rows, ok
}

// Freeze makes the Env read-only.
func (e *Env) Freeze() {
	e.frozen = true
}

// SetupHook runs once per execution, before any stage worker starts.
// Hooks run sequentially in declaration order.
type SetupHook interface {
	Setup(ctx context.Context, env *Env) error
}

// SetupFunc adapts a function to the SetupHook interface.
type SetupFunc func(ctx context.Context, env *Env) error

// Setup implements SetupHook.
func (f SetupFunc) Setup(ctx context.Context, env *Env) error {
	return f(ctx, env)
}

// StaticTable returns a hook that stores fixed rows as a lookup table.
func StaticTable(name string, rows []ir.Binding) SetupHook {
	return SetupFunc(func(_ context.Context, env *Env) error {
		return env.SetTable(name, rows)
	})
}

// QueryTable returns a hook that runs a query once, with the empty
// binding, and stores the rows as a lookup table.
func QueryTable(name string, t *query.Template, svc query.Service) SetupHook {
	return SetupFunc(func(ctx context.Context, env *Env) error {
		text, err := t.Expand(env.Globals)
		if err != nil {
			return err
		}
		req, err := t.Prepare(text, ir.EmptyBinding())
		if err != nil {
			return err
		}
		rows, err := svc.Select(ctx, req)
		if err != nil {
			return fmt.Errorf("table %q: %w", name, err)
		}
		return env.SetTable(name, rows)
	})
}
