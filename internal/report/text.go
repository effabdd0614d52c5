package report

import (
	"fmt"
	"io"
)

// WriteText writes a human-readable summary: one line per case, then a
// totals line.
//
//	▸ rule
//	  ✓ case
//	  ✗ case: message
func WriteText(w io.Writer, r *Report) error {
	for _, s := range r.Suites {
		if _, err := fmt.Fprintf(w, "▸ %s\n", s.Name); err != nil {
			return err
		}
		for _, c := range s.Cases {
			var err error
			if c.Passed() {
				_, err = fmt.Fprintf(w, "  ✓ %s\n", c.Name)
			} else {
				_, err = fmt.Fprintf(w, "  ✗ %s: %s\n", c.Name, c.Failure.Message)
			}
			if err != nil {
				return err
			}
		}
	}
	cases, failures := r.Totals()
	_, err := fmt.Fprintf(w, "\n%d rules, %d cases, %d passed, %d failed\n",
		len(r.Suites), cases, cases-failures, failures)
	return err
}
