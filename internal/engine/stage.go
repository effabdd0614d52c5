package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
)

// Stage is one unit of pipeline work.
//
// This is a sealed interface: only *QueryStage and *TransformStage
// implement it. A Stage is immutable and shared by every execution of its
// rule; open creates the per-execution processor holding any run state.
type Stage interface {
	StageName() string
	open(env *Env) (processor, error)
}

// processor handles the tokens of one stage during one execution.
//
// For a binding it may emit any number of bindings. For the end marker it
// must emit exactly one end marker, after any flushed bindings; the stage
// worker checks this and fails the rule otherwise.
type processor interface {
	Process(ctx context.Context, tok Token, emit func(Token)) error
}

// QueryStage substitutes each input binding into a query template, runs
// it, and emits one binding per result row. Row values override input
// values of the same name.
//
// The template is expanded once per execution; substitution happens per
// binding. The stage holds no state between bindings.
type QueryStage struct {
	Name     string
	Template *query.Template
	Service  query.Service
}

// StageName implements Stage.
func (s *QueryStage) StageName() string { return s.Name }

func (s *QueryStage) open(env *Env) (processor, error) {
	text, err := s.Template.Expand(env.Globals)
	if err != nil {
		return nil, err
	}
	return &queryProcessor{stage: s, text: text, env: env}, nil
}

type queryProcessor struct {
	stage *QueryStage
	text  string
	env   *Env
}

func (p *queryProcessor) Process(ctx context.Context, tok Token, emit func(Token)) error {
	if tok.End {
		emit(EndMarker)
		return nil
	}

	req, err := p.stage.Template.Prepare(p.text, tok.Binding)
	if err != nil {
		return err
	}

	start := time.Now()
	rows, err := p.stage.Service.Select(ctx, req)
	p.env.metrics.QueryObserved(string(req.Dialect), time.Since(start))
	if err != nil {
		return fmt.Errorf("query %s: %w", req.Name, err)
	}

	for _, row := range rows {
		emit(Data(tok.Binding.Merge(row)))
	}
	return nil
}

// TransformStage runs a Transformer created fresh for every execution.
//
// The transformer never sees the end marker: the stage calls Flush when it
// arrives and then forwards the end marker itself.
type TransformStage struct {
	Name string
	New  TransformerFactory
}

// StageName implements Stage.
func (s *TransformStage) StageName() string { return s.Name }

func (s *TransformStage) open(env *Env) (processor, error) {
	t, err := s.New(env)
	if err != nil {
		return nil, err
	}
	return &transformProcessor{t: t}, nil
}

type transformProcessor struct {
	t Transformer
}

func (p *transformProcessor) Process(ctx context.Context, tok Token, emit func(Token)) error {
	emitBinding := func(b ir.Binding) { emit(Data(b)) }
	if tok.End {
		if err := p.t.Flush(ctx, emitBinding); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		emit(EndMarker)
		return nil
	}
	return p.t.Accept(ctx, tok.Binding, emitBinding)
}
