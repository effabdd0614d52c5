package battery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/ontaudit/internal/compiler"
	"github.com/roach88/ontaudit/internal/engine"
	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
	"github.com/roach88/ontaudit/internal/report"
)

// Recorder stores completed suites. *store.Store satisfies it.
type Recorder interface {
	RecordSuite(ctx context.Context, suite *report.Suite) (int64, error)
}

// Battery is an ordered collection of uniquely named rules.
//
// Rules run one at a time in the order they were added. A Battery is not
// safe for concurrent modification; build it fully before running it.
type Battery struct {
	engine   *engine.Engine
	builder  *compiler.Builder
	globals  query.Globals
	recorder Recorder
	logger   *slog.Logger

	rules []*engine.Rule
	names map[string]bool
}

// Option configures a Battery.
type Option func(*Battery)

// WithEngine sets the engine that executes rules.
func WithEngine(e *engine.Engine) Option {
	return func(b *Battery) {
		b.engine = e
	}
}

// WithBuilder sets the builder used by the AddSpec and AddFile family.
func WithBuilder(bl *compiler.Builder) Option {
	return func(b *Battery) {
		b.builder = bl
	}
}

// WithGlobals sets the prefixes, graph groups and options every rule
// execution sees.
func WithGlobals(g query.Globals) Option {
	return func(b *Battery) {
		b.globals = g
	}
}

// WithRecorder records every completed suite, e.g. into the run history.
func WithRecorder(r Recorder) Option {
	return func(b *Battery) {
		b.recorder = r
	}
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *Battery) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates an empty battery.
func New(opts ...Option) *Battery {
	b := &Battery{
		logger: slog.Default(),
		names:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.engine == nil {
		b.engine = engine.New(engine.WithLogger(b.logger))
	}
	return b
}

// Add appends a rule. A rule whose name is already present, or that does
// not validate, is rejected with a *ConfigError.
func (b *Battery) Add(rule *engine.Rule) error {
	if rule == nil {
		return &ConfigError{Code: ErrCodeInvalidRule, Err: errors.New("nil rule")}
	}
	if b.names[rule.Name] {
		return &ConfigError{Code: ErrCodeDuplicateRule, Rule: rule.Name, Source: rule.Source,
			Err: errors.New("a rule with this name is already loaded")}
	}
	if err := rule.Validate(); err != nil {
		return &ConfigError{Code: ErrCodeInvalidRule, Rule: rule.Name, Source: rule.Source, Err: err}
	}
	b.names[rule.Name] = true
	b.rules = append(b.rules, rule)
	b.logger.Debug("rule added", "rule", rule.Name, "source", rule.Source, "stages", len(rule.Stages))
	return nil
}

// AddSpec builds a rule specification and adds it.
func (b *Battery) AddSpec(spec *ir.RuleSpec) error {
	if b.builder == nil {
		return &ConfigError{Code: ErrCodeInvalidRule, Rule: spec.Name, Source: spec.Source,
			Err: errors.New("battery has no rule builder")}
	}
	if b.names[spec.Name] {
		return &ConfigError{Code: ErrCodeDuplicateRule, Rule: spec.Name, Source: spec.Source,
			Err: errors.New("a rule with this name is already loaded")}
	}
	rule, err := b.builder.Build(spec)
	if err != nil {
		return &ConfigError{Code: ErrCodeInvalidRule, Rule: spec.Name, Source: spec.Source, Err: err}
	}
	return b.Add(rule)
}

// AddFile loads every rule defined in a YAML or CUE file.
func (b *Battery) AddFile(path string) error {
	specs, err := compiler.LoadFile(path)
	if err != nil {
		return &ConfigError{Code: ErrCodeInvalidRule, Source: path, Err: err}
	}
	for i := range specs {
		if err := b.AddSpec(&specs[i]); err != nil {
			return err
		}
	}
	return nil
}

// AddDir loads the rule files directly inside dir, in lexical order.
func (b *Battery) AddDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read rule directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !compiler.IsRuleFile(entry.Name()) {
			continue
		}
		if err := b.AddFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// AddTree loads every rule file under root, depth first in lexical order.
func (b *Battery) AddTree(root string) error {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && compiler.IsRuleFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk rule tree: %w", err)
	}
	sort.Strings(files)
	for _, f := range files {
		if err := b.AddFile(f); err != nil {
			return err
		}
	}
	return nil
}

// Rules returns the rules in run order.
func (b *Battery) Rules() []*engine.Rule {
	out := make([]*engine.Rule, len(b.rules))
	copy(out, b.rules)
	return out
}

// Len returns the number of rules.
func (b *Battery) Len() int {
	return len(b.rules)
}

// Run executes every rule in order and returns the report.
//
// The first failing rule aborts the run. The returned report then holds
// the suites that completed before it, alongside the error.
func (b *Battery) Run(ctx context.Context) (*report.Report, error) {
	r := &report.Report{}
	for _, rule := range b.rules {
		suite, err := b.engine.Execute(ctx, rule, b.globals)
		if err != nil {
			return r, fmt.Errorf("battery aborted at rule %q: %w", rule.Name, err)
		}
		r.Add(suite)

		if b.recorder != nil {
			if _, err := b.recorder.RecordSuite(ctx, suite); err != nil {
				return r, fmt.Errorf("record rule %q: %w", rule.Name, err)
			}
		}
	}

	cases, failures := r.Totals()
	b.logger.Info("battery finished", "rules", len(r.Suites), "cases", cases, "failures", failures)
	return r, nil
}

// RunTables executes every rule in report mode: the terminal bindings of
// each rule become one table, and no evaluator is called.
func (b *Battery) RunTables(ctx context.Context) ([]*report.Table, error) {
	tables := make([]*report.Table, 0, len(b.rules))
	for _, rule := range b.rules {
		rows, err := b.engine.Collect(ctx, rule, b.globals)
		if err != nil {
			return tables, fmt.Errorf("battery aborted at rule %q: %w", rule.Name, err)
		}
		tables = append(tables, &report.Table{Name: rule.Name, Rows: rows})
	}
	return tables, nil
}
