package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Cases    []CaseEvent // Cases of the rule involved, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Cases) > 0 {
		fmt.Fprintf(&buf, "\nCases:\n")
		for i, c := range e.Cases {
			mark := "✓"
			if !c.Passed {
				mark = "✗"
			}
			fmt.Fprintf(&buf, "  [%d] %s %s", i+1, mark, c.Case)
			if c.Message != "" {
				fmt.Fprintf(&buf, ": %s", c.Message)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCasePasses:
			err = assertCaseOutcome(result.Cases, a, true)
		case AssertCaseFails:
			err = assertCaseOutcome(result.Cases, a, false)
		case AssertCaseCount:
			err = assertCaseCount(result.Cases, a)
		case AssertSuiteOrder:
			err = assertSuiteOrder(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func casesOf(cases []CaseEvent, rule string) []CaseEvent {
	var out []CaseEvent
	for _, c := range cases {
		if c.Rule == rule {
			out = append(out, c)
		}
	}
	return out
}

// assertCaseOutcome checks that the named case exists with the expected
// outcome. For failures, a non-empty Message must match exactly.
func assertCaseOutcome(cases []CaseEvent, a Assertion, passed bool) error {
	ruleCases := casesOf(cases, a.Rule)
	for _, c := range ruleCases {
		if c.Case != a.Case {
			continue
		}
		switch {
		case c.Passed != passed:
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("case %q of %s to %s", a.Case, a.Rule, outcome(passed)),
				Actual:   fmt.Sprintf("case %s (%s)", outcome(c.Passed), c.Message),
				Cases:    ruleCases,
			}
		case !passed && a.Message != "" && c.Message != a.Message:
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("failure message %q", a.Message),
				Actual:   fmt.Sprintf("failure message %q", c.Message),
				Cases:    ruleCases,
			}
		}
		return nil
	}

	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("case %q in rule %s", a.Case, a.Rule),
		Actual:   "case not found",
		Cases:    ruleCases,
	}
}

func outcome(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}

// assertCaseCount checks that the rule produced exactly Count cases.
func assertCaseCount(cases []CaseEvent, a Assertion) error {
	ruleCases := casesOf(cases, a.Rule)
	if len(ruleCases) != a.Count {
		return &AssertionError{
			Type:     AssertCaseCount,
			Expected: fmt.Sprintf("%d cases in %s", a.Count, a.Rule),
			Actual:   fmt.Sprintf("%d cases", len(ruleCases)),
			Cases:    ruleCases,
		}
	}
	return nil
}

// assertSuiteOrder checks that the listed rules ran in the given order.
// Rules not listed may run in between.
func assertSuiteOrder(result *Result, a Assertion) error {
	positions := make(map[string]int)
	if result.Report != nil {
		for i, s := range result.Report.Suites {
			positions[s.Name] = i + 1 // 1-indexed for readability
		}
	}

	for _, rule := range a.Rules {
		if positions[rule] == 0 {
			return &AssertionError{
				Type:     AssertSuiteOrder,
				Expected: fmt.Sprintf("all rules present: %v", a.Rules),
				Actual:   fmt.Sprintf("missing rule: %s", rule),
			}
		}
	}

	for i := 1; i < len(a.Rules); i++ {
		prev, curr := a.Rules[i-1], a.Rules[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertSuiteOrder,
				Expected: fmt.Sprintf("rules in order: %v", a.Rules),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
			}
		}
	}
	return nil
}
