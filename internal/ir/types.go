package ir

// Query dialects understood by the query services.
const (
	DialectSPARQL = "sparql"
	DialectSQL    = "sql"
)

// ValidDialects lists the dialects a stage or setup query may declare.
var ValidDialects = map[string]bool{
	DialectSPARQL: true,
	DialectSQL:    true,
}

// Stage kinds derived from which StageSpec field is set.
const (
	StageKindQuery     = "query"
	StageKindMatch     = "match"
	StageKindTransform = "transform"
)

// RuleSpec is the declarative form of one audit rule, as read from a
// rule-definition document.
type RuleSpec struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Source      string        `json:"source,omitempty" yaml:"-"`
	Setup       []SetupSpec   `json:"setup,omitempty" yaml:"setup,omitempty"`
	Stages      []StageSpec   `json:"stages" yaml:"stages"`
	Predicate   PredicateSpec `json:"predicate,omitempty" yaml:"predicate,omitempty"`
	CaseName    string        `json:"case_name,omitempty" yaml:"case_name,omitempty"`
}

// SetupSpec materializes a named lookup table before any stage runs.
// Exactly one of Rows or Query is set.
type SetupSpec struct {
	Table   string              `json:"table" yaml:"table"`
	Rows    []map[string]string `json:"rows,omitempty" yaml:"rows,omitempty"`
	Query   string              `json:"query,omitempty" yaml:"query,omitempty"`
	Dialect string              `json:"dialect,omitempty" yaml:"dialect,omitempty"`
}

// StageSpec is one pipeline stage. Exactly one of Query, Match or
// Transform is set.
type StageSpec struct {
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	Query     string            `json:"query,omitempty" yaml:"query,omitempty"`
	Match     *MatchSpec        `json:"match,omitempty" yaml:"match,omitempty"`
	Dialect   string            `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Transform string            `json:"transform,omitempty" yaml:"transform,omitempty"`
	Options   map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Kind returns the stage kind, or "" when zero or several kinds are set.
func (s StageSpec) Kind() string {
	kind, n := "", 0
	if s.Query != "" {
		kind, n = StageKindQuery, n+1
	}
	if s.Match != nil {
		kind, n = StageKindMatch, n+1
	}
	if s.Transform != "" {
		kind, n = StageKindTransform, n+1
	}
	if n != 1 {
		return ""
	}
	return kind
}

// MatchSpec is a structured triple-pattern query. Each pattern holds three
// or four positions (subject, predicate, object, optional graph); a
// position is a ?variable, an N-Triples term, a qualified name, or "a".
type MatchSpec struct {
	Patterns [][]string        `json:"patterns" yaml:"patterns"`
	Filter   map[string]string `json:"filter,omitempty" yaml:"filter,omitempty"`
	Select   []string          `json:"select,omitempty" yaml:"select,omitempty"`
}

// PredicateSpec selects the judgment strategy. The zero value is the
// default audit_case_ok / audit_case_text convention.
type PredicateSpec struct {
	Expr    string  `json:"expr,omitempty" yaml:"expr,omitempty"`
	Message string  `json:"message,omitempty" yaml:"message,omitempty"`
	AllTrue []Check `json:"all_true,omitempty" yaml:"all_true,omitempty"`
}

// IsDefault reports whether no explicit strategy was given.
func (p PredicateSpec) IsDefault() bool {
	return p.Expr == "" && len(p.AllTrue) == 0
}

// Check pairs a boolean variable with the message reported when it is not
// true.
type Check struct {
	Var     string `json:"var" yaml:"var"`
	Message string `json:"message" yaml:"message"`
}

// Conventional variable names read by the default evaluator.
const (
	VarCaseOK   = "audit_case_ok"
	VarCaseText = "audit_case_text"
	VarCaseName = "audit_case_name"
)
