package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/metrics"
	"github.com/roach88/ontaudit/internal/query"
	"github.com/roach88/ontaudit/internal/report"
)

// Engine executes rules.
//
// Each execution runs one goroutine per stage plus one for the evaluator
// (or collector), connected by unbounded FIFO queues. Queue 0 is seeded
// with the empty trigger binding and the end marker. The first worker
// error cancels every other worker and is returned; nothing partial is
// returned with it.
//
// An Engine holds no per-execution state and is safe for concurrent use,
// although a Battery runs its rules one at a time.
type Engine struct {
	logger      *slog.Logger
	metrics     *metrics.Metrics
	runIDs      RunIDGenerator
	clock       *Clock
	maxBindings int
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records executions in m.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRunIDGenerator sets the run id source. The default is
// UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		if g != nil {
			e.runIDs = g
		}
	}
}

// WithMaxBindings limits how many bindings any single queue may receive
// during one execution. The default of 0 means unbounded.
//
// Use WithMaxBindings(100000) to guard against a query that fans out far
// beyond what the rule author expected.
func WithMaxBindings(n int) EngineOption {
	return func(e *Engine) {
		e.maxBindings = n
	}
}

// WithClock sets the logical clock that numbers executions.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.Default(),
		runIDs: UUIDv7Generator{},
		clock:  NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// execution is the state of one rule run.
type execution struct {
	engine *Engine
	rule   *Rule
	env    *Env
}

// Execute runs a rule and returns its suite.
//
// On any setup, stage or evaluation error the suite is discarded and a
// *RuntimeError is returned.
func (e *Engine) Execute(ctx context.Context, rule *Rule, g query.Globals) (*report.Suite, error) {
	start := time.Now()
	r, err := e.start(ctx, rule, g, true)
	if err != nil {
		e.metrics.RuleRun(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	suite := report.NewSuite(rule.Name, r.env.RunID)
	err = r.pipeline(ctx, func(ctx context.Context, q *tokenQueue) error {
		return r.evaluate(ctx, q, suite)
	})
	elapsed := time.Since(start)
	if err != nil {
		e.metrics.RuleRun(metrics.OutcomeError, elapsed)
		e.logger.Error("rule aborted",
			"rule", rule.Name,
			"run_id", r.env.RunID,
			"error", err,
		)
		return nil, err
	}

	for _, c := range suite.Cases {
		e.metrics.CaseJudged(c.Passed())
	}
	outcome := metrics.OutcomePassed
	if !suite.Passed() {
		outcome = metrics.OutcomeFailed
	}
	e.metrics.RuleRun(outcome, elapsed)
	e.logger.Info("rule finished",
		"rule", rule.Name,
		"run_id", r.env.RunID,
		"cases", len(suite.Cases),
		"failures", suite.Failures(),
		"duration", elapsed,
	)
	return suite, nil
}

// Collect runs a rule's stage chain and returns the terminal bindings in
// queue order instead of judging them. The evaluator is not called.
func (e *Engine) Collect(ctx context.Context, rule *Rule, g query.Globals) ([]ir.Binding, error) {
	r, err := e.start(ctx, rule, g, false)
	if err != nil {
		return nil, err
	}

	rows := []ir.Binding{}
	err = r.pipeline(ctx, func(ctx context.Context, q *tokenQueue) error {
		for {
			tok, err := q.Dequeue(ctx)
			if err != nil {
				return err
			}
			if tok.End {
				return nil
			}
			rows = append(rows, tok.Binding)
		}
	})
	if err != nil {
		e.logger.Error("rule aborted",
			"rule", rule.Name,
			"run_id", r.env.RunID,
			"error", err,
		)
		return nil, err
	}

	e.logger.Info("rule collected",
		"rule", rule.Name,
		"run_id", r.env.RunID,
		"rows", len(rows),
	)
	return rows, nil
}

// start validates the rule, creates its Env and runs the setup hooks in
// declaration order.
func (e *Engine) start(ctx context.Context, rule *Rule, g query.Globals, judge bool) (*execution, error) {
	if err := rule.validate(judge); err != nil {
		return nil, err
	}

	env := NewEnv(rule.Name, e.runIDs.Generate(), e.clock.Next(), g)
	env.metrics = e.metrics

	e.logger.Debug("rule started",
		"rule", rule.Name,
		"run_id", env.RunID,
		"seq", env.Seq,
		"stages", len(rule.Stages),
	)

	for i, hook := range rule.Setup {
		if err := hook.Setup(ctx, env); err != nil {
			return nil, &RuntimeError{
				Code:       ErrCodeSetupFailed,
				Message:    fmt.Sprintf("setup hook %d failed", i),
				Rule:       rule.Name,
				RunID:      env.RunID,
				StageIndex: -1,
				Err:        err,
			}
		}
	}
	env.Freeze()

	return &execution{engine: e, rule: rule, env: env}, nil
}

// pipeline opens every stage, wires the queues and runs the workers and
// the sink until all finish or one fails.
func (r *execution) pipeline(ctx context.Context, sink func(context.Context, *tokenQueue) error) error {
	stages := r.rule.Stages
	procs := make([]processor, len(stages))
	for i, s := range stages {
		p, err := s.open(r.env)
		if err != nil {
			return r.stageError(i, nil, "open failed", err)
		}
		procs[i] = p
	}

	queues := make([]*tokenQueue, len(stages)+1)
	for i := range queues {
		queues[i] = newTokenQueue()
	}
	queues[0].Enqueue(Data(ir.EmptyBinding()))
	queues[0].Enqueue(EndMarker)

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range procs {
		g.Go(func() error {
			return r.stageWorker(gctx, i, p, queues[i], queues[i+1])
		})
	}
	g.Go(func() error {
		return sink(gctx, queues[len(stages)])
	})
	return g.Wait()
}

// stageWorker feeds stage i until it has processed the end marker, and
// checks that the stage forwarded exactly one end marker, last.
func (r *execution) stageWorker(ctx context.Context, i int, p processor, in, out *tokenQueue) error {
	quota := NewQuotaEnforcer(r.engine.maxBindings)
	for {
		tok, err := in.Dequeue(ctx)
		if err != nil {
			return err
		}

		var (
			ends      int
			violation string
			quotaErr  error
		)
		emit := func(t Token) {
			switch {
			case t.End && !tok.End:
				violation = "end marker emitted before end of input"
			case !t.End && ends > 0:
				violation = "binding emitted after end marker"
			case t.End:
				ends++
			default:
				if quotaErr != nil {
					return
				}
				if err := quota.Check(); err != nil {
					quotaErr = err
					return
				}
			}
			out.Enqueue(t)
		}

		if err := p.Process(ctx, tok, emit); err != nil {
			return r.stageError(i, &tok, "process failed", err)
		}
		if quotaErr != nil {
			return r.runtimeError(ErrCodeQuotaExceeded, i, &tok, "binding quota exceeded", quotaErr)
		}
		if tok.End && ends != 1 && violation == "" {
			violation = fmt.Sprintf("expected exactly one end marker at end of input, got %d", ends)
		}
		if violation != "" {
			return r.runtimeError(ErrCodeEndMarkerViolation, i, &tok, violation, nil)
		}
		if tok.End {
			r.engine.metrics.BindingsEmitted(r.rule.Name, stageLabel(i, r.rule.Stages[i]), quota.Current())
			r.engine.logger.Debug("stage finished",
				"rule", r.rule.Name,
				"run_id", r.env.RunID,
				"stage", stageLabel(i, r.rule.Stages[i]),
				"bindings", quota.Current(),
			)
			return nil
		}
	}
}

func (r *execution) stageError(i int, tok *Token, message string, err error) error {
	return r.runtimeError(ErrCodeStageFailed, i, tok, message, err)
}

func (r *execution) runtimeError(code RuntimeErrorCode, i int, tok *Token, message string, err error) error {
	re := &RuntimeError{
		Code:       code,
		Message:    message,
		Rule:       r.rule.Name,
		RunID:      r.env.RunID,
		Stage:      stageLabel(i, r.rule.Stages[i]),
		StageIndex: i,
		Err:        err,
	}
	if tok != nil && !tok.End {
		b := tok.Binding
		re.Input = &b
	}
	return re
}
