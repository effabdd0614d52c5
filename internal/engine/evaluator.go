package engine

import (
	"context"
	"fmt"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/report"
)

// CaseNamer returns the case identifier for a terminal binding.
type CaseNamer func(env *Env, b ir.Binding) (string, error)

// Judge decides whether a terminal binding passes. The message is used
// only when passed is false; an empty message means the default.
type Judge func(env *Env, b ir.Binding) (passed bool, message string, err error)

// Evaluator turns terminal bindings into report cases. For each binding
// CaseName is called exactly once, then Predicate exactly once.
type Evaluator struct {
	CaseName  CaseNamer
	Predicate Judge
}

// DefaultEvaluator reads the conventional audit variables:
//
//	audit_case_name  case identifier (required)
//	audit_case_ok    passes only when "true"^^xsd:boolean
//	audit_case_text  failure message (optional)
func DefaultEvaluator() Evaluator {
	return Evaluator{
		CaseName: func(_ *Env, b ir.Binding) (string, error) {
			t, ok := b.Get(ir.VarCaseName)
			if !ok {
				return "", fmt.Errorf("?%s is unbound", ir.VarCaseName)
			}
			return t.Display(), nil
		},
		Predicate: DefaultJudge,
	}
}

// DefaultJudge passes when audit_case_ok is true and reports
// audit_case_text otherwise.
func DefaultJudge(_ *Env, b ir.Binding) (bool, string, error) {
	if t, _ := b.Get(ir.VarCaseOK); ir.IsTrue(t) {
		return true, "", nil
	}
	if text, ok := b.Get(ir.VarCaseText); ok {
		return false, text.Display(), nil
	}
	return false, "", nil
}

// evaluate drains the terminal queue into suite until the first end
// marker. Anything queued after it is ignored.
func (r *execution) evaluate(ctx context.Context, q *tokenQueue, suite *report.Suite) error {
	ev := r.rule.Evaluator
	for {
		tok, err := q.Dequeue(ctx)
		if err != nil {
			return err
		}
		if tok.End {
			return nil
		}

		name, err := ev.CaseName(r.env, tok.Binding)
		if err != nil {
			return r.evaluationError("case name", tok, err)
		}
		passed, message, err := ev.Predicate(r.env, tok.Binding)
		if err != nil {
			return r.evaluationError(fmt.Sprintf("predicate for case %q", name), tok, err)
		}

		if passed {
			suite.Pass(name)
		} else {
			suite.Fail(name, message)
		}
	}
}

func (r *execution) evaluationError(what string, tok Token, err error) error {
	b := tok.Binding
	return &RuntimeError{
		Code:       ErrCodeEvaluationFailed,
		Message:    what + " failed",
		Rule:       r.rule.Name,
		RunID:      r.env.RunID,
		StageIndex: -1,
		Input:      &b,
		Err:        err,
	}
}
