package expr

import (
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/roach88/ontaudit/internal/ir"
)

// Expr is a compiled boolean or value expression over binding variables.
//
// Variables are referenced by name without the '?'. Bound terms are
// converted with ir.Native: numbers become float64, booleans bool, and
// everything else its display string. Unbound variables evaluate to nil,
// which only bound() and str() accept.
//
// Example:
//
//	x < 2 && bound(label) && lower(label) =~ '^a'
type Expr struct {
	src  string
	eval *govaluate.EvaluableExpression
}

var functions = map[string]govaluate.ExpressionFunction{
	"bound": func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("bound() takes 1 argument, got %d", len(args))
		}
		return args[0] != nil, nil
	},
	"str": func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("str() takes 1 argument, got %d", len(args))
		}
		if args[0] == nil {
			return "", nil
		}
		return fmt.Sprint(args[0]), nil
	},
	"lower": stringFunc("lower", strings.ToLower),
	"upper": stringFunc("upper", strings.ToUpper),
	"strlen": func(args ...any) (any, error) {
		s, err := oneString("strlen", args)
		if err != nil {
			return nil, err
		}
		return float64(len([]rune(s))), nil
	},
	"contains": func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("contains() takes 2 arguments, got %d", len(args))
		}
		s, ok1 := args[0].(string)
		sub, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("contains() takes string arguments")
		}
		return strings.Contains(s, sub), nil
	},
}

func oneString(name string, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s() takes 1 argument, got %d", name, len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%s() takes a string, got %T", name, args[0])
	}
	return s, nil
}

func stringFunc(name string, f func(string) string) govaluate.ExpressionFunction {
	return func(args ...any) (any, error) {
		s, err := oneString(name, args)
		if err != nil {
			return nil, err
		}
		return f(s), nil
	}
}

// Compile parses an expression.
func Compile(src string) (*Expr, error) {
	e, err := govaluate.NewEvaluableExpressionWithFunctions(src, functions)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", src, err)
	}
	return &Expr{src: src, eval: e}, nil
}

// MustCompile is like Compile but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustCompile(src string) *Expr {
	x, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return x
}

// String returns the expression source.
func (x *Expr) String() string {
	return x.src
}

// Vars returns the variables the expression references.
func (x *Expr) Vars() []string {
	return x.eval.Vars()
}

// Eval evaluates the expression against a binding.
func (x *Expr) Eval(b ir.Binding) (any, error) {
	params := make(map[string]any, len(x.Vars()))
	for _, v := range x.Vars() {
		if t, ok := b.Get(v); ok {
			params[v] = ir.Native(t)
		} else {
			params[v] = nil
		}
	}
	out, err := x.eval.Evaluate(params)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", x.src, err)
	}
	return out, nil
}

// Bool evaluates the expression and requires a boolean result.
func (x *Expr) Bool(b ir.Binding) (bool, error) {
	out, err := x.Eval(b)
	if err != nil {
		return false, err
	}
	v, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("evaluate %q: result %v (%T) is not a boolean", x.src, out, out)
	}
	return v, nil
}
