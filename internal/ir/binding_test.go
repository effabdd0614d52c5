package ir

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyBinding(t *testing.T) {
	b := EmptyBinding()
	assert.True(t, b.IsEmpty())
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Vars())
	assert.Equal(t, "{}", b.String())

	var zero Binding
	assert.True(t, zero.Equal(b))
}

func TestBindingGet(t *testing.T) {
	b := NewBinding(E("x", Int(1)), E("y", IRI("urn:y")))

	v, ok := b.Get("x")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)

	_, ok = b.Get("z")
	assert.False(t, ok, "unbound variable")
	assert.True(t, b.Has("y"))
	assert.Equal(t, []string{"x", "y"}, b.Vars())
}

func TestNewBindingLaterEntryOverrides(t *testing.T) {
	b := NewBinding(E("x", Int(1)), E("y", Int(2)), E("x", Int(3)))
	assert.Equal(t, []string{"x", "y"}, b.Vars())
	v, _ := b.Get("x")
	assert.Equal(t, Int(3), v)

	unbound := NewBinding(E("x", Int(1)), E("x", nil))
	assert.False(t, unbound.Has("x"))
}

func TestBindingWithIsImmutable(t *testing.T) {
	orig := NewBinding(E("x", Int(1)))
	derived := orig.With("y", Int(2))
	overridden := orig.With("x", Int(9))

	assert.Equal(t, 1, orig.Len(), "original must not change")
	v, _ := orig.Get("x")
	assert.Equal(t, Int(1), v)

	assert.Equal(t, []string{"x", "y"}, derived.Vars())
	v, _ = overridden.Get("x")
	assert.Equal(t, Int(9), v)
}

func TestBindingWithDoesNotAlias(t *testing.T) {
	// Two derivations from the same parent must not share backing arrays.
	parent := NewBinding(E("a", Int(1)), E("b", Int(2)))
	left := parent.With("c", Int(3))
	right := parent.With("c", Int(4))

	lv, _ := left.Get("c")
	rv, _ := right.Get("c")
	assert.Equal(t, Int(3), lv)
	assert.Equal(t, Int(4), rv)
}

func TestBindingWithout(t *testing.T) {
	b := NewBinding(E("x", Int(1)), E("y", Int(2)), E("z", Int(3)))
	out := b.Without("y")
	assert.Equal(t, []string{"x", "z"}, out.Vars())
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, b, b.Without("missing"))
}

func TestBindingMerge(t *testing.T) {
	input := NewBinding(E("x", Int(1)), E("keep", String("k")))
	row := NewBinding(E("x", Int(2)), E("y", Int(3)))

	merged := input.Merge(row)
	assert.Equal(t, []string{"x", "keep", "y"}, merged.Vars())
	x, _ := merged.Get("x")
	assert.Equal(t, Int(2), x, "row overrides input")
	keep, _ := merged.Get("keep")
	assert.Equal(t, String("k"), keep, "input entries preserved")

	assert.True(t, input.Merge(EmptyBinding()).Equal(input))
	assert.True(t, EmptyBinding().Merge(row).Equal(row))
}

func TestBindingProject(t *testing.T) {
	b := NewBinding(E("x", Int(1)), E("y", Int(2)), E("z", Int(3)))
	p := b.Project("z", "x", "missing")
	assert.Equal(t, []string{"z", "x"}, p.Vars())
}

func TestBindingEqualIgnoresOrder(t *testing.T) {
	a := NewBinding(E("x", Int(1)), E("y", Int(2)))
	b := NewBinding(E("y", Int(2)), E("x", Int(1)))
	c := NewBinding(E("x", Int(1)), E("y", Int(3)))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(a.Without("y")))
}

func TestBindingAll(t *testing.T) {
	b := NewBinding(E("x", Int(1)), E("y", Int(2)))
	var names []string
	for name, term := range b.All() {
		names = append(names, name+"="+term.Display())
	}
	assert.Equal(t, []string{"x=1", "y=2"}, names)
}

func TestBindingStringAndJSON(t *testing.T) {
	b := NewBinding(E("s", IRI("urn:s")), E("n", Int(1)))
	assert.Equal(t, `{?s=<urn:s> ?n="1"^^<http://www.w3.org/2001/XMLSchema#integer>}`, b.String())

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `{"s":"<urn:s>","n":"\"1\"^^<http://www.w3.org/2001/XMLSchema#integer>"}`, string(data))
}

func TestBindingMap(t *testing.T) {
	b := NewBinding(E("x", Int(1)))
	m := b.Map()
	m["y"] = Int(2)
	assert.False(t, b.Has("y"), "Map returns a copy")
}

func TestBindingConcurrentReads(t *testing.T) {
	b := NewBinding(E("x", Int(1)), E("y", Int(2)))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			d := b.With("z", Int(n))
			assert.Equal(t, 3, d.Len())
			assert.Equal(t, 2, b.Len())
		}(int64(i))
	}
	wg.Wait()
}
