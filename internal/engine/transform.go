package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/ontaudit/internal/ir"
)

// Transformer is the custom logic of a TransformStage. A new Transformer
// is created for every execution, so its fields are private run state.
//
// Accept receives each input binding and may emit any number of derived
// bindings. Flush is called once at end of input and may emit buffered
// results. Neither sees nor emits the end marker.
type Transformer interface {
	Accept(ctx context.Context, b ir.Binding, emit func(ir.Binding)) error
	Flush(ctx context.Context, emit func(ir.Binding)) error
}

// TransformerFactory creates the Transformer for one execution.
type TransformerFactory func(env *Env) (Transformer, error)

// TransformBuilder configures a transform from rule options.
type TransformBuilder func(opts map[string]string) (TransformerFactory, error)

var (
	transformsMu sync.RWMutex
	transforms   = make(map[string]TransformBuilder)
)

// RegisterTransform makes a transform available to rule definitions by
// name. It panics if the name is already registered.
func RegisterTransform(name string, b TransformBuilder) {
	transformsMu.Lock()
	defer transformsMu.Unlock()

	if _, dup := transforms[name]; dup {
		panic(fmt.Sprintf("engine: transform %q registered twice", name))
	}
	transforms[name] = b
}

// LookupTransform returns the builder registered under name.
func LookupTransform(name string) (TransformBuilder, bool) {
	transformsMu.RLock()
	defer transformsMu.RUnlock()

	b, ok := transforms[name]
	return b, ok
}

// Transforms returns the registered transform names in sorted order.
func Transforms() []string {
	transformsMu.RLock()
	defer transformsMu.RUnlock()

	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MapFunc is a stateless transform: it returns the derived binding and
// whether to keep it.
type MapFunc func(b ir.Binding) (ir.Binding, bool, error)

// Accept implements Transformer.
func (f MapFunc) Accept(_ context.Context, b ir.Binding, emit func(ir.Binding)) error {
	out, keep, err := f(b)
	if err != nil {
		return err
	}
	if keep {
		emit(out)
	}
	return nil
}

// Flush implements Transformer.
func (MapFunc) Flush(context.Context, func(ir.Binding)) error {
	return nil
}

// Stateless wraps a MapFunc as a factory. The same MapFunc serves every
// execution.
func Stateless(f MapFunc) TransformerFactory {
	return func(*Env) (Transformer, error) { return f, nil }
}

// options reads transform options and records the first problem.
type options struct {
	transform string
	values    map[string]string
	used      map[string]bool
	err       error
}

func newOptions(transform string, values map[string]string) *options {
	return &options{transform: transform, values: values, used: make(map[string]bool)}
}

func (o *options) get(name, def string) string {
	o.used[name] = true
	if v, ok := o.values[name]; ok && v != "" {
		return v
	}
	return def
}

func (o *options) required(name string) string {
	v := o.get(name, "")
	if v == "" && o.err == nil {
		o.err = fmt.Errorf("transform %s: option %q is required", o.transform, name)
	}
	return v
}

func (o *options) list(name string) []string {
	var out []string
	for _, part := range strings.Split(o.get(name, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (o *options) bool(name string) bool {
	switch v := o.get(name, "false"); v {
	case "true", "yes", "1":
		return true
	case "false", "no", "0":
		return false
	default:
		if o.err == nil {
			o.err = fmt.Errorf("transform %s: option %q must be true or false, got %q", o.transform, name, v)
		}
		return false
	}
}

// done reports the first problem, including options nobody asked for.
func (o *options) done() error {
	if o.err != nil {
		return o.err
	}
	var unknown []string
	for name := range o.values {
		if !o.used[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("transform %s: unknown options %s", o.transform, strings.Join(unknown, ", "))
	}
	return nil
}
