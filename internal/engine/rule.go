package engine

import (
	"errors"
	"fmt"
)

// Rule is a named stage chain plus the evaluator that judges its output.
// A Rule is immutable once built and may be executed any number of times;
// each execution gets fresh stage state.
type Rule struct {
	Name        string
	Description string

	// Source is the file the rule was loaded from, if any.
	Source string

	Setup     []SetupHook
	Stages    []Stage
	Evaluator Evaluator
}

// Validate checks that the rule can be executed.
func (r *Rule) Validate() error {
	return r.validate(true)
}

// validate checks the rule; the evaluator is optional when collecting.
func (r *Rule) validate(needEvaluator bool) error {
	var errs []error
	if r.Name == "" {
		errs = append(errs, errors.New("rule name is required"))
	}
	if len(r.Stages) == 0 {
		errs = append(errs, errors.New("rule needs at least one stage"))
	}
	for i, s := range r.Stages {
		switch st := s.(type) {
		case nil:
			errs = append(errs, fmt.Errorf("stage %d is nil", i))
		case *QueryStage:
			if st.Template == nil {
				errs = append(errs, fmt.Errorf("stage %d (%s): query template is required", i, st.Name))
			}
			if st.Service == nil {
				errs = append(errs, fmt.Errorf("stage %d (%s): query service is required", i, st.Name))
			}
		case *TransformStage:
			if st.New == nil {
				errs = append(errs, fmt.Errorf("stage %d (%s): transformer factory is required", i, st.Name))
			}
		}
	}
	for i, h := range r.Setup {
		if h == nil {
			errs = append(errs, fmt.Errorf("setup hook %d is nil", i))
		}
	}
	if needEvaluator && (r.Evaluator.CaseName == nil || r.Evaluator.Predicate == nil) {
		errs = append(errs, errors.New("evaluator needs both a case name and a predicate"))
	}
	if err := errors.Join(errs...); err != nil {
		if r.Name != "" {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
		return err
	}
	return nil
}

// stageLabel names a stage for logs and errors.
func stageLabel(i int, s Stage) string {
	if name := s.StageName(); name != "" {
		return name
	}
	return fmt.Sprintf("stage-%d", i)
}
