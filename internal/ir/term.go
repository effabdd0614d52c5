package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// XML Schema and RDF datatype IRIs used by literals.
const (
	XSD = "http://www.w3.org/2001/XMLSchema#"
	RDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	XSDString  = XSD + "string"
	XSDBoolean = XSD + "boolean"
	XSDInteger = XSD + "integer"
	XSDDecimal = XSD + "decimal"
	XSDDouble  = XSD + "double"

	RDFLangString = RDF + "langString"
	RDFType       = RDF + "type"
)

// Term is a sealed interface representing an RDF value carried by a Binding.
// Only IRI, Literal and Blank implement it. Unbound variables are never
// represented by a Term; they are simply absent from the Binding.
//
// All Term implementations are comparable, so two terms can be tested for
// identity with ==.
type Term interface {
	term() // Sealed - only these types implement it

	// NT renders the term in N-Triples syntax.
	NT() string

	// Display renders the term for humans: the IRI text, the lexical form,
	// or the blank node label.
	Display() string
}

// IRI is an opaque resource identifier.
type IRI string

func (IRI) term() {}

// NT implements Term.
func (i IRI) NT() string {
	return "<" + escapeIRI(string(i)) + ">"
}

// Display implements Term.
func (i IRI) Display() string { return string(i) }

// Blank is a blank node, identified by a label scoped to one result set.
type Blank string

func (Blank) term() {}

// NT implements Term.
func (b Blank) NT() string { return "_:" + string(b) }

// Display implements Term.
func (b Blank) Display() string { return "_:" + string(b) }

// Literal is a typed literal. Lang is set only for rdf:langString literals.
type Literal struct {
	Lexical  string
	Datatype string
	Lang     string
}

func (Literal) term() {}

// NT implements Term. Plain xsd:string literals are written without a
// datatype suffix.
func (l Literal) NT() string {
	var b strings.Builder
	b.WriteByte('"')
	b.WriteString(escapeString(l.Lexical))
	b.WriteByte('"')
	switch {
	case l.Lang != "":
		b.WriteByte('@')
		b.WriteString(l.Lang)
	case l.Datatype != "" && l.Datatype != XSDString:
		b.WriteString("^^")
		b.WriteString(IRI(l.Datatype).NT())
	}
	return b.String()
}

// Display implements Term.
func (l Literal) Display() string { return l.Lexical }

// IsTrue reports whether l is the xsd:boolean literal "true".
// Numeric aliases ("1") are deliberately not accepted.
func (l Literal) IsTrue() bool {
	return l.Datatype == XSDBoolean && l.Lexical == "true"
}

// Native converts the literal to a Go value for expression evaluation.
// Booleans become bool, every numeric XSD type becomes float64, and
// everything else (including malformed numbers) stays a string.
func (l Literal) Native() any {
	switch {
	case l.Datatype == XSDBoolean:
		switch l.Lexical {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
	case isNumericDatatype(l.Datatype):
		if f, err := strconv.ParseFloat(strings.TrimSpace(l.Lexical), 64); err == nil {
			return f
		}
	}
	return l.Lexical
}

// Native converts any term to a Go value. IRIs and blank nodes convert to
// their display strings.
func Native(t Term) any {
	if l, ok := t.(Literal); ok {
		return l.Native()
	}
	return t.Display()
}

var numericDatatypes = map[string]bool{
	XSDInteger:                 true,
	XSDDecimal:                 true,
	XSDDouble:                  true,
	XSD + "float":              true,
	XSD + "int":                true,
	XSD + "long":               true,
	XSD + "short":              true,
	XSD + "byte":               true,
	XSD + "nonNegativeInteger": true,
	XSD + "nonPositiveInteger": true,
	XSD + "positiveInteger":    true,
	XSD + "negativeInteger":    true,
	XSD + "unsignedLong":       true,
	XSD + "unsignedInt":        true,
	XSD + "unsignedShort":      true,
	XSD + "unsignedByte":       true,
}

func isNumericDatatype(dt string) bool {
	return numericDatatypes[dt]
}

// NewIRI creates an IRI term.
func NewIRI(s string) IRI {
	return IRI(s)
}

// NewLiteral creates a typed literal. An empty datatype means xsd:string.
func NewLiteral(lexical, datatype string) Literal {
	if datatype == "" {
		datatype = XSDString
	}
	return Literal{Lexical: lexical, Datatype: datatype}
}

// NewLangLiteral creates a language-tagged string literal. The tag is kept
// as given; use Key to compare terms.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Datatype: RDFLangString, Lang: lang}
}

// Key returns a string that is equal for two terms exactly when they are
// the same RDF term. It is the N-Triples form with the language tag folded
// to lower case, since tags compare case-insensitively.
func Key(t Term) string {
	if l, ok := t.(Literal); ok && l.Lang != "" {
		l.Lang = strings.ToLower(l.Lang)
		return l.NT()
	}
	return t.NT()
}

// String creates an xsd:string literal.
func String(s string) Literal {
	return NewLiteral(s, XSDString)
}

// Int creates an xsd:integer literal.
func Int(n int64) Literal {
	return NewLiteral(strconv.FormatInt(n, 10), XSDInteger)
}

// Double creates an xsd:double literal.
func Double(f float64) Literal {
	return NewLiteral(strconv.FormatFloat(f, 'g', -1, 64), XSDDouble)
}

// Bool creates an xsd:boolean literal.
func Bool(b bool) Literal {
	return NewLiteral(strconv.FormatBool(b), XSDBoolean)
}

// IsTrue reports whether t is the xsd:boolean literal "true".
func IsTrue(t Term) bool {
	l, ok := t.(Literal)
	return ok && l.IsTrue()
}

// ParseTerm parses a single term in N-Triples syntax: <iri>, _:label,
// "lexical", "lexical"@lang or "lexical"^^<datatype>.
func ParseTerm(s string) (Term, error) {
	t, rest, err := scanTerm(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("unexpected trailing input %q after term", rest)
	}
	return t, nil
}

// MustParseTerm is like ParseTerm but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseTerm(s string) Term {
	t, err := ParseTerm(s)
	if err != nil {
		panic(err)
	}
	return t
}

// scanTerm reads one term from the front of s and returns the remainder.
func scanTerm(s string) (Term, string, error) {
	if s == "" {
		return nil, "", fmt.Errorf("empty term")
	}
	switch {
	case s[0] == '<':
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return nil, "", fmt.Errorf("unterminated IRI in %q", s)
		}
		raw := s[1:end]
		if strings.ContainsAny(raw, " \t\n\"") {
			return nil, "", fmt.Errorf("invalid character in IRI %q", raw)
		}
		iri, err := unescape(raw)
		if err != nil {
			return nil, "", fmt.Errorf("IRI %q: %w", s[:end+1], err)
		}
		return IRI(iri), s[end+1:], nil

	case strings.HasPrefix(s, "_:"):
		i := 2
		for i < len(s) && isLabelChar(s[i]) {
			i++
		}
		if i == 2 {
			return nil, "", fmt.Errorf("empty blank node label in %q", s)
		}
		return Blank(s[2:i]), s[i:], nil

	case s[0] == '"':
		end := closingQuote(s)
		if end < 0 {
			return nil, "", fmt.Errorf("unterminated literal in %q", s)
		}
		lex, err := unescape(s[1:end])
		if err != nil {
			return nil, "", fmt.Errorf("literal %q: %w", s[:end+1], err)
		}
		rest := s[end+1:]
		switch {
		case strings.HasPrefix(rest, "@"):
			i := 1
			for i < len(rest) && (isAlnum(rest[i]) || rest[i] == '-') {
				i++
			}
			if i == 1 {
				return nil, "", fmt.Errorf("empty language tag in %q", s)
			}
			return NewLangLiteral(lex, rest[1:i]), rest[i:], nil
		case strings.HasPrefix(rest, "^^"):
			dt, after, err := scanTerm(rest[2:])
			if err != nil {
				return nil, "", fmt.Errorf("literal datatype: %w", err)
			}
			iri, ok := dt.(IRI)
			if !ok {
				return nil, "", fmt.Errorf("literal datatype must be an IRI, got %s", dt.NT())
			}
			return NewLiteral(lex, string(iri)), after, nil
		default:
			return String(lex), rest, nil
		}
	}
	return nil, "", fmt.Errorf("not a term: %q", s)
}

// closingQuote returns the index of the quote closing the literal that
// starts at s[0], honoring backslash escapes.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isLabelChar(c byte) bool {
	return isAlnum(c) || c == '_' || c == '-' || c == '.' || c >= 0x80
}

func escapeString(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r\t") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func escapeIRI(s string) string {
	if !strings.ContainsAny(s, "<>\"{}|^`\\ ") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune("<>\"{}|^`\\ ", r) {
			fmt.Fprintf(&b, `\u%04X`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// unescape decodes N-Triples string escapes (ECHAR and UCHAR).
func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("dangling escape")
		}
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(s[i])
		case 'u', 'U':
			n := 4
			if s[i] == 'U' {
				n = 8
			}
			if i+1+n > len(s) {
				return "", fmt.Errorf("short unicode escape")
			}
			code, err := strconv.ParseUint(s[i+1:i+1+n], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape: %w", err)
			}
			b.WriteRune(rune(code))
			i += n
		default:
			return "", fmt.Errorf("unknown escape \\%c", s[i])
		}
	}
	return b.String(), nil
}
