package engine

import "github.com/roach88/ontaudit/internal/ir"

// Token is one item on a pipeline queue: a binding, or the end marker.
type Token struct {
	Binding ir.Binding
	End     bool
}

// EndMarker signals that no further bindings will arrive on a queue.
var EndMarker = Token{End: true}

// Data wraps a binding as a token.
func Data(b ir.Binding) Token {
	return Token{Binding: b}
}

// String renders the token for logs and errors.
func (t Token) String() string {
	if t.End {
		return "<end>"
	}
	return t.Binding.String()
}
