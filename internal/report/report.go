package report

// DefaultFailureMessage is attached to a failing case whose predicate gave
// no message.
const DefaultFailureMessage = "Failure."

// Report is the result of running a battery: one suite per executed rule,
// in rule order.
type Report struct {
	Suites []*Suite
}

// Suite holds the cases of one rule execution in the order the evaluator
// produced them.
type Suite struct {
	Name  string
	RunID string
	Cases []Case
}

// Case is one judgment. A nil Failure means the case passed.
type Case struct {
	Name    string
	Failure *Failure
}

// Failure carries the message of a failing case.
type Failure struct {
	Message string
}

// Passed reports whether the case passed.
func (c Case) Passed() bool {
	return c.Failure == nil
}

// NewSuite creates an empty suite for a rule execution.
func NewSuite(name, runID string) *Suite {
	return &Suite{Name: name, RunID: runID, Cases: []Case{}}
}

// Pass appends a passing case.
func (s *Suite) Pass(name string) {
	s.Cases = append(s.Cases, Case{Name: name})
}

// Fail appends a failing case. An empty message becomes
// DefaultFailureMessage.
func (s *Suite) Fail(name, message string) {
	if message == "" {
		message = DefaultFailureMessage
	}
	s.Cases = append(s.Cases, Case{Name: name, Failure: &Failure{Message: message}})
}

// Failures returns the number of failing cases.
func (s *Suite) Failures() int {
	n := 0
	for _, c := range s.Cases {
		if !c.Passed() {
			n++
		}
	}
	return n
}

// Passed reports whether every case passed.
func (s *Suite) Passed() bool {
	return s.Failures() == 0
}

// Add appends a suite.
func (r *Report) Add(s *Suite) {
	r.Suites = append(r.Suites, s)
}

// Totals returns the number of cases and failing cases across all suites.
func (r *Report) Totals() (cases, failures int) {
	for _, s := range r.Suites {
		cases += len(s.Cases)
		failures += s.Failures()
	}
	return cases, failures
}

// Passed reports whether every case of every suite passed.
func (r *Report) Passed() bool {
	_, failures := r.Totals()
	return failures == 0
}

// Suite returns the suite with the given name, or nil.
func (r *Report) Suite(name string) *Suite {
	for _, s := range r.Suites {
		if s.Name == name {
			return s
		}
	}
	return nil
}
