package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ontaudit/internal/ir"
)

// ruleDocument is one YAML document of a rule file.
type ruleDocument struct {
	Rules []ir.RuleSpec `yaml:"rules"`
}

// ParseYAML parses a YAML rule file. A file may hold several documents
// separated by "---"; rules keep their order across documents.
//
//	rules:
//	  - name: every-class-has-a-label
//	    stages:
//	      - query: SELECT ?c WHERE { ?c a owl:Class }
//	    case_name: "{{qname .c}}"
//
// Unknown fields are errors.
func ParseYAML(filename string, data []byte) ([]ir.RuleSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	specs := []ir.RuleSpec{}
	for doc := 1; ; doc++ {
		var d ruleDocument
		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", filename, doc, err)
		}
		for _, spec := range d.Rules {
			spec.Source = filename
			specs = append(specs, spec)
		}
	}
	return specs, nil
}
