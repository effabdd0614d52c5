package compiler

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/ontaudit/internal/engine"
	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
)

// Builder turns validated rule specifications into executable rules.
type Builder struct {
	// Services runs queries by dialect. Every dialect a rule uses must be
	// registered.
	Services query.Router

	// Prefixes resolves prefixed names in match patterns, filters and
	// setup rows.
	Prefixes ir.Prefixes
}

// NewBuilder creates a builder. Builtin prefixes are always available;
// prefixes overrides them.
func NewBuilder(services query.Router, prefixes ir.Prefixes) *Builder {
	return &Builder{
		Services: services,
		Prefixes: ir.BuiltinPrefixes().Merge(prefixes),
	}
}

// Build validates spec and compiles it into an engine rule.
func (b *Builder) Build(spec *ir.RuleSpec) (*engine.Rule, error) {
	if errs := Validate(spec); len(errs) > 0 {
		return nil, fmt.Errorf("rule %q: %w", spec.Name, ValidationErrors(errs))
	}

	rule := &engine.Rule{
		Name:        spec.Name,
		Description: spec.Description,
		Source:      spec.Source,
	}

	for _, s := range spec.Setup {
		hook, err := b.buildSetup(s)
		if err != nil {
			return nil, fmt.Errorf("rule %q: setup %q: %w", spec.Name, s.Table, err)
		}
		rule.Setup = append(rule.Setup, hook)
	}

	for i, s := range spec.Stages {
		stage, err := b.buildStage(i, s)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
		}
		rule.Stages = append(rule.Stages, stage)
	}

	namer, err := caseNamer(spec.CaseName)
	if err != nil {
		return nil, fmt.Errorf("rule %q: case_name: %w", spec.Name, err)
	}
	pred, err := judge(spec.Predicate)
	if err != nil {
		return nil, fmt.Errorf("rule %q: predicate: %w", spec.Name, err)
	}
	rule.Evaluator = engine.Evaluator{CaseName: namer, Predicate: pred}

	return rule, nil
}

func (b *Builder) buildSetup(s ir.SetupSpec) (engine.SetupHook, error) {
	if len(s.Rows) > 0 {
		rows := make([]ir.Binding, 0, len(s.Rows))
		for _, r := range s.Rows {
			// Map order is random; sorted columns keep lookup output stable.
			entries := make([]ir.Entry, 0, len(r))
			for _, name := range slices.Sorted(maps.Keys(r)) {
				entries = append(entries, ir.E(name, parseValue(r[name], b.Prefixes)))
			}
			rows = append(rows, ir.NewBinding(entries...))
		}
		return engine.StaticTable(s.Table, rows), nil
	}

	d, err := b.dialect(s.Dialect)
	if err != nil {
		return nil, err
	}
	t, err := query.NewTemplate("setup:"+s.Table, s.Query, d)
	if err != nil {
		return nil, err
	}
	return engine.QueryTable(s.Table, t, b.Services), nil
}

func (b *Builder) buildStage(i int, s ir.StageSpec) (engine.Stage, error) {
	kind := s.Kind()
	name := s.Name
	if name == "" {
		name = fmt.Sprintf("%s-%d", kind, i)
	}

	switch kind {
	case ir.StageKindQuery, ir.StageKindMatch:
		d, err := b.dialect(s.Dialect)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
		var t *query.Template
		if kind == ir.StageKindQuery {
			t, err = query.NewTemplate(name, s.Query, d)
		} else {
			m, merr := buildMatch(s.Match, b.Prefixes)
			if merr != nil {
				return nil, fmt.Errorf("stage %s: %w", name, merr)
			}
			t, err = query.FromMatch(name, m, d)
		}
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
		return &engine.QueryStage{Name: name, Template: t, Service: b.Services}, nil

	case ir.StageKindTransform:
		build, ok := engine.LookupTransform(s.Transform)
		if !ok {
			return nil, fmt.Errorf("stage %s: unknown transform %q", name, s.Transform)
		}
		factory, err := build(s.Options)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", name, err)
		}
		return &engine.TransformStage{Name: name, New: factory}, nil
	}
	return nil, fmt.Errorf("stage %d: no query, match or transform", i)
}

func (b *Builder) dialect(s string) (query.Dialect, error) {
	d, err := query.ParseDialect(s)
	if err != nil {
		return "", err
	}
	if !b.Services.Has(d) {
		return "", fmt.Errorf("no query service for dialect %s", d)
	}
	return d, nil
}
