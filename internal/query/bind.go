package query

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/ontaudit/internal/ir"
)

// Request is a bound query ready to submit to a Service.
type Request struct {
	// Name identifies the template the request came from, for logs and
	// errors.
	Name    string
	Dialect Dialect
	Text    string

	// Args holds sql.NamedArg parameters for the SQL dialect.
	Args []any
}

// Bind substitutes the variables bound in b into expanded query text.
//
// SPARQL: every ?name or $name token whose variable is bound is replaced by
// the term's N-Triples form. Tokens inside string literals, IRIs and
// comments are left alone, as are unbound variables. A bound variable
// listed directly in a SELECT projection becomes (<term> AS ?name), so the
// row still carries it.
//
// SQL: every :name token outside strings and comments becomes a named
// parameter holding the N-Triples form of the term, or NULL if unbound.
func Bind(text string, d Dialect, b ir.Binding) (Request, error) {
	switch d {
	case SPARQL:
		return Request{Dialect: d, Text: bindSPARQL(text, b)}, nil
	case SQL:
		return Request{Dialect: d, Text: text, Args: bindSQL(text, b)}, nil
	}
	return Request{}, fmt.Errorf("unknown dialect %q", d)
}

func isNameChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}

// skipQuoted returns the index just past the string literal that starts at
// s[i]. Triple-quoted long strings are recognized when long is set.
func skipQuoted(s string, i int, long bool) int {
	q := s[i]
	if long && strings.HasPrefix(s[i:], strings.Repeat(string(q), 3)) {
		delim := strings.Repeat(string(q), 3)
		for j := i + 3; j < len(s); j++ {
			if s[j] == '\\' {
				j++
				continue
			}
			if strings.HasPrefix(s[j:], delim) {
				return j + 3
			}
		}
		return len(s)
	}
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return len(s)
}

// iriEnd returns the index just past an IRI reference starting at s[i], or
// -1 if the '<' is a comparison operator.
func iriEnd(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		switch c := s[j]; {
		case c == '>':
			return j + 1
		case c == '<' || c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '"':
			return -1
		}
	}
	return -1
}

func bindSPARQL(text string, b ir.Binding) string {
	if b.IsEmpty() {
		return text
	}
	var out strings.Builder
	out.Grow(len(text))
	projection := false
	depth := 0
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '"' || c == '\'':
			end := skipQuoted(text, i, true)
			out.WriteString(text[i:end])
			i = end
		case c == '<':
			end := iriEnd(text, i)
			if end < 0 {
				end = i + 1
			}
			out.WriteString(text[i:end])
			i = end
		case c == '#':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = len(text) - i
			}
			out.WriteString(text[i : i+end])
			i += end
		case c == '?' || c == '$':
			j := i + 1
			for j < len(text) && isNameChar(text[j]) {
				j++
			}
			name := text[i+1 : j]
			t, ok := b.Get(name)
			switch {
			case !ok || name == "":
				out.WriteString(text[i:j])
			case projection && depth == 0:
				fmt.Fprintf(&out, "(%s AS ?%s)", t.NT(), name)
			default:
				out.WriteString(t.NT())
			}
			i = j
		case isNameChar(c):
			j := i
			for j < len(text) && isNameChar(text[j]) {
				j++
			}
			// Parts of prefixed names (ex:select, from:x) are not keywords.
			word := text[i:j]
			if (i > 0 && text[i-1] == ':') || (j < len(text) && text[j] == ':') {
				word = ""
			}
			switch strings.ToUpper(word) {
			case "SELECT":
				projection, depth = true, 0
			case "WHERE", "FROM":
				projection = false
			}
			out.WriteString(text[i:j])
			i = j
		default:
			switch c {
			case '{':
				projection = false
			case '(':
				depth++
			case ')':
				depth--
			}
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// SQLParams returns the distinct :name parameters in SQL text in order of
// first appearance.
func SQLParams(text string) []string {
	var names []string
	seen := make(map[string]bool)
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(text, i, false)
		case c == '-' && strings.HasPrefix(text[i:], "--"):
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				return names
			}
			i += end
		case c == ':':
			if i+1 < len(text) && text[i+1] == ':' {
				i += 2
				continue
			}
			j := i + 1
			for j < len(text) && isNameChar(text[j]) {
				j++
			}
			if name := text[i+1 : j]; name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			i = j
		default:
			i++
		}
	}
	return names
}

func bindSQL(text string, b ir.Binding) []any {
	names := SQLParams(text)
	if len(names) == 0 {
		return nil
	}
	args := make([]any, 0, len(names))
	for _, name := range names {
		var v any
		if t, ok := b.Get(name); ok {
			v = t.NT()
		}
		args = append(args, sql.Named(name, v))
	}
	return args
}
