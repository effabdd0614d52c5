package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/ontaudit/internal/battery"
	"github.com/roach88/ontaudit/internal/compiler"
	"github.com/roach88/ontaudit/internal/engine"
	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
	"github.com/roach88/ontaudit/internal/store"
	"github.com/roach88/ontaudit/internal/testutil"
)

// Harness executes scenarios against a private in-memory store.
type Harness struct {
	store   *store.Store
	battery *battery.Battery
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// sequential run ids so reports are reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database and load the scenario data
// 2. Load, validate and build the scenario's rules
// 3. Run the battery
// 4. Evaluate assertions against the report
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{store: st, logger: logger}

	if err := h.loadData(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	globals, err := h.globals(ctx, scenario)
	if err != nil {
		return nil, err
	}

	runIDs := scenario.RunID
	if runIDs == "" {
		runIDs = scenario.Name
	}
	eng := engine.New(
		engine.WithLogger(logger),
		engine.WithRunIDGenerator(testutil.NewSequenceGenerator(runIDs)),
		engine.WithClock(engine.NewClock()),
	)
	h.battery = battery.New(
		battery.WithEngine(eng),
		battery.WithBuilder(compiler.NewBuilder(query.Router{query.SQL: st}, scenario.Prefixes)),
		battery.WithGlobals(globals),
		battery.WithLogger(logger),
	)
	for _, path := range scenario.Rules {
		if err := h.battery.AddFile(path); err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}
	}

	rep, err := h.battery.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run rules: %w", err)
	}

	result := NewResult(rep)
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"cases", len(result.Cases),
		"pass", result.Pass,
	)
	return result, nil
}

func (h *Harness) loadData(ctx context.Context, scenario *Scenario) error {
	if strings.TrimSpace(scenario.Data) != "" {
		if _, err := h.store.LoadNTriples(ctx, strings.NewReader(scenario.Data), ""); err != nil {
			return fmt.Errorf("inline data: %w", err)
		}
	}
	for _, path := range scenario.DataFiles {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = h.store.LoadNTriples(ctx, f, "")
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func (h *Harness) globals(ctx context.Context, scenario *Scenario) (query.Globals, error) {
	var graphs []ir.IRI
	for _, g := range scenario.Graphs {
		graphs = append(graphs, ir.IRI(g))
	}
	if len(graphs) == 0 {
		var err error
		if graphs, err = h.store.Graphs(ctx); err != nil {
			return query.Globals{}, fmt.Errorf("failed to list graphs: %w", err)
		}
	}
	return query.Globals{
		Prefixes: ir.BuiltinPrefixes().Merge(scenario.Prefixes),
		Graphs:   map[string][]ir.IRI{"named": graphs},
		Options:  scenario.Options,
	}, nil
}
