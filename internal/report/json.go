package report

import (
	"encoding/json"
	"fmt"
	"io"
)

type jsonReport struct {
	Passed   bool        `json:"passed"`
	Cases    int         `json:"cases"`
	Failures int         `json:"failures"`
	Suites   []jsonSuite `json:"suites"`
}

type jsonSuite struct {
	Name     string     `json:"name"`
	RunID    string     `json:"run_id,omitempty"`
	Failures int        `json:"failures"`
	Cases    []jsonCase `json:"cases"`
}

type jsonCase struct {
	Name    string  `json:"name"`
	Passed  bool    `json:"passed"`
	Failure *string `json:"failure,omitempty"`
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	cases, failures := r.Totals()
	out := jsonReport{
		Passed:   failures == 0,
		Cases:    cases,
		Failures: failures,
		Suites:   make([]jsonSuite, 0, len(r.Suites)),
	}
	for _, s := range r.Suites {
		js := jsonSuite{
			Name:     s.Name,
			RunID:    s.RunID,
			Failures: s.Failures(),
			Cases:    make([]jsonCase, 0, len(s.Cases)),
		}
		for _, c := range s.Cases {
			jc := jsonCase{Name: c.Name, Passed: c.Passed()}
			if c.Failure != nil {
				msg := c.Failure.Message
				jc.Failure = &msg
			}
			js.Cases = append(js.Cases, jc)
		}
		out.Suites = append(out.Suites, js)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	return nil
}
