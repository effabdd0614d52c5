package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/ontaudit/internal/ir"
)

const rdfs = "http://www.w3.org/2000/01/rdf-schema#"

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// loadTestData loads a small subclass hierarchy spread over two graphs.
func loadTestData(t *testing.T, s *Store) {
	t.Helper()
	data := strings.Join([]string{
		"<urn:A> <" + rdfs + "subClassOf> <urn:B> <urn:g1> .",
		"<urn:B> <" + rdfs + "subClassOf> <urn:C> <urn:g1> .",
		"<urn:A> <" + rdfs + "subClassOf> <urn:C> <urn:g2> .",
		`<urn:A> <` + rdfs + `label> "A" .`,
	}, "\n")
	if _, err := s.LoadNTriples(context.Background(), strings.NewReader(data), ""); err != nil {
		t.Fatalf("LoadNTriples() failed: %v", err)
	}
}

var subClassOf = ir.IRI(rdfs + "subClassOf")
