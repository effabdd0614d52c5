package engine

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/ontaudit/internal/expr"
	"github.com/roach88/ontaudit/internal/ir"
)

func init() {
	RegisterTransform("pass", buildPass)
	RegisterTransform("distinct", buildDistinct)
	RegisterTransform("select", buildSelect)
	RegisterTransform("filter", buildFilter)
	RegisterTransform("group", buildGroup)
	RegisterTransform("lookup", buildLookup)
	RegisterTransform("reduction", buildReduction)
}

func buildPass(opts map[string]string) (TransformerFactory, error) {
	if err := newOptions("pass", opts).done(); err != nil {
		return nil, err
	}
	return Stateless(func(b ir.Binding) (ir.Binding, bool, error) {
		return b, true, nil
	}), nil
}

// distinct drops bindings already seen in this execution.
type distinct struct {
	seen map[string]bool
}

func buildDistinct(opts map[string]string) (TransformerFactory, error) {
	if err := newOptions("distinct", opts).done(); err != nil {
		return nil, err
	}
	return func(*Env) (Transformer, error) {
		return &distinct{seen: make(map[string]bool)}, nil
	}, nil
}

func (d *distinct) Accept(_ context.Context, b ir.Binding, emit func(ir.Binding)) error {
	h, err := ir.BindingHash(b)
	if err != nil {
		return err
	}
	if d.seen[h] {
		return nil
	}
	d.seen[h] = true
	emit(b)
	return nil
}

func (d *distinct) Flush(context.Context, func(ir.Binding)) error { return nil }

func buildSelect(opts map[string]string) (TransformerFactory, error) {
	o := newOptions("select", opts)
	vars := o.list("vars")
	if len(vars) == 0 && o.err == nil {
		o.err = fmt.Errorf("transform select: option \"vars\" is required")
	}
	if err := o.done(); err != nil {
		return nil, err
	}
	return Stateless(func(b ir.Binding) (ir.Binding, bool, error) {
		return b.Project(vars...), true, nil
	}), nil
}

func buildFilter(opts map[string]string) (TransformerFactory, error) {
	o := newOptions("filter", opts)
	src := o.required("expr")
	if err := o.done(); err != nil {
		return nil, err
	}
	x, err := expr.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("transform filter: %w", err)
	}
	return Stateless(func(b ir.Binding) (ir.Binding, bool, error) {
		keep, err := x.Bool(b)
		return b, keep, err
	}), nil
}

// group buffers every binding and emits one binding per distinct value of
// the grouping variables at end of input.
type group struct {
	collect, as, count, sep string
	byVars                  []string

	order  []string
	groups map[string]*groupEntry
}

type groupEntry struct {
	key    ir.Binding
	values map[string]bool
}

func buildGroup(opts map[string]string) (TransformerFactory, error) {
	o := newOptions("group", opts)
	byVars := o.list("by")
	collect := o.required("collect")
	as := o.get("as", collect)
	count := o.get("count", "")
	sep := o.get("separator", ", ")
	if err := o.done(); err != nil {
		return nil, err
	}
	return func(*Env) (Transformer, error) {
		return &group{
			byVars:  byVars,
			collect: collect,
			as:      as,
			count:   count,
			sep:     sep,
			groups:  make(map[string]*groupEntry),
		}, nil
	}, nil
}

func (g *group) Accept(_ context.Context, b ir.Binding, _ func(ir.Binding)) error {
	key := b.Project(g.byVars...)
	id := key.String()
	entry, ok := g.groups[id]
	if !ok {
		entry = &groupEntry{key: key, values: make(map[string]bool)}
		g.groups[id] = entry
		g.order = append(g.order, id)
	}
	if t, ok := b.Get(g.collect); ok {
		entry.values[t.Display()] = true
	}
	return nil
}

func (g *group) Flush(_ context.Context, emit func(ir.Binding)) error {
	for _, id := range g.order {
		entry := g.groups[id]
		values := make([]string, 0, len(entry.values))
		for v := range entry.values {
			values = append(values, v)
		}
		sort.Strings(values)

		out := entry.key.With(g.as, ir.String(strings.Join(values, g.sep)))
		if g.count != "" {
			out = out.With(g.count, ir.Int(int64(len(values))))
		}
		emit(out)
	}
	return nil
}

// lookup joins each binding with the rows of a setup table.
type lookup struct {
	on       string
	optional bool
	index    map[string][]ir.Binding
}

func buildLookup(opts map[string]string) (TransformerFactory, error) {
	o := newOptions("lookup", opts)
	table := o.required("table")
	key := o.required("key")
	on := o.get("on", key)
	optional := o.bool("optional")
	if err := o.done(); err != nil {
		return nil, err
	}
	return func(env *Env) (Transformer, error) {
		rows, ok := env.Table(table)
		if !ok {
			return nil, fmt.Errorf("transform lookup: no setup table %q", table)
		}
		index := make(map[string][]ir.Binding)
		for _, row := range rows {
			if t, ok := row.Get(key); ok {
				index[ir.Key(t)] = append(index[ir.Key(t)], row)
			}
		}
		return &lookup{on: on, optional: optional, index: index}, nil
	}, nil
}

func (l *lookup) Accept(_ context.Context, b ir.Binding, emit func(ir.Binding)) error {
	var matches []ir.Binding
	if t, ok := b.Get(l.on); ok {
		matches = l.index[ir.Key(t)]
	}
	if len(matches) == 0 {
		if l.optional {
			emit(b)
		}
		return nil
	}
	for _, row := range matches {
		emit(b.Merge(row))
	}
	return nil
}

func (l *lookup) Flush(context.Context, func(ir.Binding)) error { return nil }

// reduction checks that every asserted edge of a relation such as
// rdfs:subClassOf is essential: an edge fails when its endpoints are also
// connected through a longer asserted path.
//
// Each distinct edge is emitted once at end of input with audit_case_ok
// set, and audit_case_text naming the graphs that assert a redundant edge.
type reduction struct {
	sub, sup, graph string

	edges  []edge
	seen   map[edge]int
	graphs [][]string
	down   map[ir.Term][]ir.Term
}

type edge struct {
	sub, sup ir.Term
}

func buildReduction(opts map[string]string) (TransformerFactory, error) {
	o := newOptions("reduction", opts)
	sub := o.get("sub", "sub")
	sup := o.get("sup", "sup")
	graph := o.get("graph", "graph")
	if err := o.done(); err != nil {
		return nil, err
	}
	return func(*Env) (Transformer, error) {
		return &reduction{
			sub:   sub,
			sup:   sup,
			graph: graph,
			seen:  make(map[edge]int),
			down:  make(map[ir.Term][]ir.Term),
		}, nil
	}, nil
}

func (r *reduction) Accept(_ context.Context, b ir.Binding, _ func(ir.Binding)) error {
	sub, ok1 := b.Get(r.sub)
	sup, ok2 := b.Get(r.sup)
	if !ok1 || !ok2 {
		return fmt.Errorf("reduction needs ?%s and ?%s bound, got %s", r.sub, r.sup, b)
	}
	e := edge{sub: sub, sup: sup}
	i, ok := r.seen[e]
	if !ok {
		i = len(r.edges)
		r.seen[e] = i
		r.edges = append(r.edges, e)
		r.graphs = append(r.graphs, nil)
		r.down[e.sup] = append(r.down[e.sup], e.sub)
	}
	if g, ok := b.Get(r.graph); ok && !slices.Contains(r.graphs[i], g.Display()) {
		r.graphs[i] = append(r.graphs[i], g.Display())
	}
	return nil
}

func (r *reduction) Flush(_ context.Context, emit func(ir.Binding)) error {
	for i, e := range r.edges {
		out := ir.NewBinding(
			ir.E(r.sub, e.sub),
			ir.E(r.sup, e.sup),
		)
		if r.inferred(e) {
			out = out.
				With(ir.VarCaseOK, ir.Bool(false)).
				With(ir.VarCaseText, ir.String(fmt.Sprintf("Asserted in %s.", strings.Join(r.graphs[i], ", "))))
		} else {
			out = out.With(ir.VarCaseOK, ir.Bool(true))
		}
		emit(out)
	}
	return nil
}

// inferred reports whether e.sub is reachable from e.sup by a path of two
// or more asserted edges.
func (r *reduction) inferred(e edge) bool {
	visited := make(map[ir.Term]bool)
	var stack []ir.Term
	for _, child := range r.down[e.sup] {
		stack = append(stack, r.down[child]...)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == e.sub {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, r.down[n]...)
	}
	return false
}
