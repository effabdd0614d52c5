package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
)

// Binding is an immutable, ordered assignment of variable names to terms.
//
// Variables that are absent are unbound. A Binding is never mutated after
// construction: With, Without, Merge and Project all return new values, so
// a Binding can be handed across goroutines without synchronization.
//
// The zero value is the empty binding.
type Binding struct {
	names []string
	terms []Term
}

// Entry is a single variable assignment used to construct a Binding.
type Entry struct {
	Name string
	Term Term
}

// E is a shorthand for Entry for ergonomic construction.
// Example: NewBinding(E("x", Int(1)), E("y", IRI("urn:y")))
func E(name string, t Term) Entry {
	return Entry{Name: name, Term: t}
}

// EmptyBinding returns the binding with no variables. It is the trigger
// token that starts every pipeline.
func EmptyBinding() Binding {
	return Binding{}
}

// NewBinding builds a binding from entries in order. A later entry for the
// same name overrides an earlier one in place; an entry with a nil term
// leaves the variable unbound.
func NewBinding(entries ...Entry) Binding {
	var b Binding
	for _, e := range entries {
		b = b.With(e.Name, e.Term)
	}
	return b
}

// Len returns the number of bound variables.
func (b Binding) Len() int {
	return len(b.names)
}

// IsEmpty reports whether no variable is bound.
func (b Binding) IsEmpty() bool {
	return len(b.names) == 0
}

func (b Binding) index(name string) int {
	for i, n := range b.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Get returns the term bound to name. The second result is false when the
// variable is unbound.
func (b Binding) Get(name string) (Term, bool) {
	if i := b.index(name); i >= 0 {
		return b.terms[i], true
	}
	return nil, false
}

// Has reports whether name is bound.
func (b Binding) Has(name string) bool {
	return b.index(name) >= 0
}

// Vars returns the bound variable names in binding order.
func (b Binding) Vars() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// All iterates over the bound variables in binding order.
func (b Binding) All() iter.Seq2[string, Term] {
	return func(yield func(string, Term) bool) {
		for i, n := range b.names {
			if !yield(n, b.terms[i]) {
				return
			}
		}
	}
}

// With returns a binding with name bound to t. An existing entry keeps its
// position; a new one is appended. A nil t removes the variable.
func (b Binding) With(name string, t Term) Binding {
	if t == nil {
		return b.Without(name)
	}
	i := b.index(name)
	if i >= 0 {
		out := b.clone(0)
		out.terms[i] = t
		return out
	}
	out := b.clone(1)
	out.names = append(out.names, name)
	out.terms = append(out.terms, t)
	return out
}

// Without returns a binding with name unbound.
func (b Binding) Without(name string) Binding {
	i := b.index(name)
	if i < 0 {
		return b
	}
	out := Binding{
		names: make([]string, 0, len(b.names)-1),
		terms: make([]Term, 0, len(b.terms)-1),
	}
	out.names = append(append(out.names, b.names[:i]...), b.names[i+1:]...)
	out.terms = append(append(out.terms, b.terms[:i]...), b.terms[i+1:]...)
	return out
}

// Merge returns b extended by other. Variables bound in both take the value
// from other; variables bound only in b are preserved.
func (b Binding) Merge(other Binding) Binding {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	out := b.clone(other.Len())
	for i, n := range other.names {
		if j := out.index(n); j >= 0 {
			out.terms[j] = other.terms[i]
			continue
		}
		out.names = append(out.names, n)
		out.terms = append(out.terms, other.terms[i])
	}
	return out
}

// Project returns a binding restricted to the named variables, in the order
// given. Unbound names are skipped.
func (b Binding) Project(names ...string) Binding {
	var out Binding
	for _, n := range names {
		if t, ok := b.Get(n); ok {
			out = out.With(n, t)
		}
	}
	return out
}

// Equal reports whether both bindings bind the same variables to the same
// terms, regardless of order.
func (b Binding) Equal(other Binding) bool {
	if b.Len() != other.Len() {
		return false
	}
	for i, n := range b.names {
		t, ok := other.Get(n)
		if !ok || t != b.terms[i] {
			return false
		}
	}
	return true
}

// Map returns a copy of the binding as a plain map.
func (b Binding) Map() map[string]Term {
	m := make(map[string]Term, len(b.names))
	for i, n := range b.names {
		m[n] = b.terms[i]
	}
	return m
}

// String renders the binding as {?x=<iri> ?y="1"^^<...>} for diagnostics.
func (b Binding) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, n := range b.names {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('?')
		sb.WriteString(n)
		sb.WriteByte('=')
		sb.WriteString(b.terms[i].NT())
	}
	sb.WriteByte('}')
	return sb.String()
}

// MarshalJSON encodes the binding as an object of N-Triples strings in
// binding order.
func (b Binding) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range b.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", n, err)
		}
		val, err := json.Marshal(b.terms[i].NT())
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", n, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// canonicalMap converts the binding to the form hashed by BindingHash.
func (b Binding) canonicalMap() map[string]any {
	m := make(map[string]any, len(b.names))
	for i, n := range b.names {
		m[n] = b.terms[i].NT()
	}
	return m
}

func (b Binding) clone(extra int) Binding {
	out := Binding{
		names: make([]string, len(b.names), len(b.names)+extra),
		terms: make([]Term, len(b.terms), len(b.terms)+extra),
	}
	copy(out.names, b.names)
	copy(out.terms, b.terms)
	return out
}
