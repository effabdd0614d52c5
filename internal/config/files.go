package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ontaudit/internal/ir"
)

// LoadPrefixes reads a YAML prefix file and merges it over the builtin
// namespaces. An empty path returns the builtins.
//
//	ex: http://example.org/
//	skos: http://www.w3.org/2004/02/skos/core#
func LoadPrefixes(path string) (ir.Prefixes, error) {
	prefixes := ir.BuiltinPrefixes()
	if path == "" {
		return prefixes, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prefix file: %w", err)
	}

	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse prefix file %s: %w", path, err)
	}
	for name, ns := range extra {
		if name == "" || strings.Contains(name, ":") {
			return nil, fmt.Errorf("prefix file %s: invalid prefix %q", path, name)
		}
		if ns == "" {
			return nil, fmt.Errorf("prefix file %s: empty namespace for %q", path, name)
		}
	}
	return prefixes.Merge(extra), nil
}

// LoadIRIs reads a file with one graph IRI per line. Blank lines and lines
// starting with '#' are skipped; IRIs may be written bare or in <...>.
func LoadIRIs(path string) ([]ir.IRI, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read IRI file: %w", err)
	}
	defer f.Close()

	var iris []ir.IRI
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if strings.HasPrefix(text, "<") {
			t, err := ir.ParseTerm(text)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
			iri, ok := t.(ir.IRI)
			if !ok {
				return nil, fmt.Errorf("%s:%d: not an IRI: %s", path, line, text)
			}
			iris = append(iris, iri)
			continue
		}
		if strings.ContainsAny(text, " \t\"") {
			return nil, fmt.Errorf("%s:%d: not an IRI: %s", path, line, text)
		}
		iris = append(iris, ir.IRI(text))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read IRI file: %w", err)
	}
	return iris, nil
}
