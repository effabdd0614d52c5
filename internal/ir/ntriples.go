package ir

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Quad is one RDF statement. An empty Graph is the default graph.
type Quad struct {
	Subject   Term
	Predicate IRI
	Object    Term
	Graph     IRI
}

// ParseError reports a malformed line in an N-Triples or N-Quads document.
type ParseError struct {
	Line    int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// ReadQuads parses an N-Triples or N-Quads document. Statements without a
// graph label are assigned to graph (which may be empty for the default
// graph). Blank lines and comment lines are skipped.
func ReadQuads(r io.Reader, graph IRI) ([]Quad, error) {
	var quads []Quad
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		q, err := parseStatement(text, graph)
		if err != nil {
			return nil, &ParseError{Line: line, Message: err.Error()}
		}
		quads = append(quads, q)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read statements: %w", err)
	}
	return quads, nil
}

func parseStatement(text string, graph IRI) (Quad, error) {
	subj, rest, err := scanTerm(text)
	if err != nil {
		return Quad{}, fmt.Errorf("subject: %w", err)
	}
	if _, ok := subj.(Literal); ok {
		return Quad{}, fmt.Errorf("subject must be an IRI or blank node")
	}

	pred, rest, err := scanTerm(strings.TrimLeft(rest, " \t"))
	if err != nil {
		return Quad{}, fmt.Errorf("predicate: %w", err)
	}
	predIRI, ok := pred.(IRI)
	if !ok {
		return Quad{}, fmt.Errorf("predicate must be an IRI")
	}

	obj, rest, err := scanTerm(strings.TrimLeft(rest, " \t"))
	if err != nil {
		return Quad{}, fmt.Errorf("object: %w", err)
	}

	rest = strings.TrimLeft(rest, " \t")
	if strings.HasPrefix(rest, "<") {
		g, after, err := scanTerm(rest)
		if err != nil {
			return Quad{}, fmt.Errorf("graph: %w", err)
		}
		graph = g.(IRI)
		rest = strings.TrimLeft(after, " \t")
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, ".") {
		return Quad{}, fmt.Errorf("missing terminating '.'")
	}
	if tail := strings.TrimSpace(rest[1:]); tail != "" && tail[0] != '#' {
		return Quad{}, fmt.Errorf("unexpected input after '.': %q", tail)
	}

	return Quad{Subject: subj, Predicate: predIRI, Object: obj, Graph: graph}, nil
}
