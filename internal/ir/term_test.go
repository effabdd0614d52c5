package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermNT(t *testing.T) {
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"iri", IRI("http://example.org/a"), "<http://example.org/a>"},
		{"blank", Blank("b0"), "_:b0"},
		{"plain string", String("hello"), `"hello"`},
		{"escaped string", String("say \"hi\"\n"), `"say \"hi\"\n"`},
		{"integer", Int(42), `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"boolean", Bool(true), `"true"^^<http://www.w3.org/2001/XMLSchema#boolean>`},
		{"lang", NewLangLiteral("chat", "fr"), `"chat"@fr`},
		{"lang keeps case", NewLangLiteral("color", "en-US"), `"color"@en-US`},
		{"iri with space", IRI("urn:a b"), `<urn:a\u0020b>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.NT())
		})
	}
}

func TestParseTermRoundTrip(t *testing.T) {
	terms := []Term{
		IRI("http://example.org/a#b"),
		Blank("node1"),
		String(""),
		String("tab\tand \\ backslash"),
		Int(-3),
		Double(2.5),
		Bool(false),
		NewLangLiteral("colour", "en-GB"),
		NewLiteral("2024-01-01", XSD+"date"),
	}
	for _, term := range terms {
		t.Run(term.NT(), func(t *testing.T) {
			parsed, err := ParseTerm(term.NT())
			require.NoError(t, err)
			assert.Equal(t, term, parsed)
		})
	}
}

func TestParseTermErrors(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"<unterminated",
		`"unterminated`,
		`"x"^^"notiri"`,
		`"x"@`,
		"_:",
		"<a> <b>",
		`"bad \q escape"`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTerm(in)
			assert.Error(t, err)
		})
	}
}

func TestParseTermUnicodeEscape(t *testing.T) {
	term, err := ParseTerm(`"caf\u00E9"`)
	require.NoError(t, err)
	assert.Equal(t, String("caf\u00e9"), term)

	iri, err := ParseTerm(`<urn:a\u0020b>`)
	require.NoError(t, err)
	assert.Equal(t, IRI("urn:a b"), iri)
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key(NewLangLiteral("color", "en-us")), Key(NewLangLiteral("color", "EN-US")))
	assert.NotEqual(t, Key(NewLangLiteral("color", "en")), Key(String("color")))
	assert.Equal(t, "<urn:a>", Key(IRI("urn:a")))

	lit, err := ParseTerm(`"color"@en-US`)
	require.NoError(t, err)
	assert.Equal(t, "en-US", lit.(Literal).Lang)
	assert.Equal(t, `"color"@en-US`, lit.NT())
}

func TestLiteralIsTrue(t *testing.T) {
	assert.True(t, Bool(true).IsTrue())
	assert.False(t, Bool(false).IsTrue())
	assert.False(t, String("true").IsTrue(), "only xsd:boolean counts")
	assert.False(t, NewLiteral("1", XSDBoolean).IsTrue(), "numeric alias is not true")
	assert.False(t, IsTrue(IRI("true")))
	assert.True(t, IsTrue(Bool(true)))
}

func TestLiteralNative(t *testing.T) {
	tests := []struct {
		name string
		lit  Literal
		want any
	}{
		{"true", Bool(true), true},
		{"false", Bool(false), false},
		{"integer", Int(3), float64(3)},
		{"decimal", NewLiteral("1.25", XSDDecimal), 1.25},
		{"int subtype", NewLiteral("7", XSD+"nonNegativeInteger"), float64(7)},
		{"malformed number", NewLiteral("abc", XSDInteger), "abc"},
		{"string", String("x"), "x"},
		{"lang", NewLangLiteral("x", "en"), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lit.Native())
		})
	}
	assert.Equal(t, "urn:a", Native(IRI("urn:a")))
}

func TestTermDisplay(t *testing.T) {
	assert.Equal(t, "urn:a", IRI("urn:a").Display())
	assert.Equal(t, "1", Int(1).Display())
	assert.Equal(t, "_:b", Blank("b").Display())
}

func TestTermsAreComparable(t *testing.T) {
	var a, b Term = Int(1), NewLiteral("1", XSDInteger)
	assert.True(t, a == b)
	assert.False(t, Term(IRI("x")) == Term(String("x")))
}
