package harness

import "github.com/roach88/ontaudit/internal/report"

// CaseEvent is one judged case, flattened out of the report in run order.
type CaseEvent struct {
	Rule    string `json:"rule"`
	RunID   string `json:"run_id"`
	Case    string `json:"case"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Cases lists every case of every suite in run order. Golden
	// comparison uses it.
	Cases []CaseEvent `json:"cases"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Report is the full report the battery produced.
	Report *report.Report `json:"-"`
}

// NewResult creates a passing result from a report.
func NewResult(r *report.Report) *Result {
	res := &Result{
		Pass:   true,
		Cases:  []CaseEvent{},
		Errors: []string{},
		Report: r,
	}
	for _, s := range r.Suites {
		for _, c := range s.Cases {
			ev := CaseEvent{Rule: s.Name, RunID: s.RunID, Case: c.Name, Passed: c.Passed()}
			if c.Failure != nil {
				ev.Message = c.Failure.Message
			}
			res.Cases = append(res.Cases, ev)
		}
	}
	return res
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
