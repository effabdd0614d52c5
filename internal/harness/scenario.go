package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: a fixed dataset, the rules to
// audit it with, and the outcomes those rules must produce.
//
// Rules run against an in-memory store holding the scenario data, so their
// query stages must use the sql dialect (or match stages with dialect sql).
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules lists rule files (YAML or CUE) to load, in run order.
	// Paths are relative to the scenario file location.
	Rules []string `yaml:"rules"`

	// Prefixes are layered over the builtin namespaces.
	Prefixes map[string]string `yaml:"prefixes,omitempty"`

	// Data is inline N-Triples or N-Quads.
	Data string `yaml:"data,omitempty"`

	// DataFiles are N-Triples or N-Quads files, relative like Rules.
	DataFiles []string `yaml:"data_files,omitempty"`

	// Graphs is the "named" graph group. When empty, every graph in the
	// loaded data is used.
	Graphs []string `yaml:"graphs,omitempty"`

	// Options are passed to query templates and transforms.
	Options map[string]string `yaml:"options,omitempty"`

	// Assertions validate the resulting report.
	// Supported types: case_passes, case_fails, case_count, suite_order
	Assertions []Assertion `yaml:"assertions"`

	// RunID prefixes the deterministic run ids ("<run_id>-1", ...).
	// Defaults to the scenario name.
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion validates one aspect of the report.
type Assertion struct {
	// Type specifies the assertion type:
	// - "case_passes": the named case of the rule passed
	// - "case_fails": the named case failed, optionally with Message
	// - "case_count": the rule produced exactly Count cases
	// - "suite_order": the rules ran in the order given by Rules
	Type string `yaml:"type"`

	// Rule is the rule name (used by case_passes, case_fails, case_count).
	Rule string `yaml:"rule,omitempty"`

	// Case is the case name (used by case_passes, case_fails).
	Case string `yaml:"case,omitempty"`

	// Message is the expected failure message (used by case_fails).
	// Empty means any message.
	Message string `yaml:"message,omitempty"`

	// Count is the expected number of cases (used by case_count).
	Count int `yaml:"count,omitempty"`

	// Rules is the expected suite order (used by suite_order).
	Rules []string `yaml:"rules,omitempty"`
}

// Assertion type constants.
const (
	AssertCasePasses = "case_passes"
	AssertCaseFails  = "case_fails"
	AssertCaseCount  = "case_count"
	AssertSuiteOrder = "suite_order"
)

// LoadScenario reads and parses a scenario YAML file, resolving rule and
// data paths relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving rule and data paths relative to basePath.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve paths BEFORE validation
	resolve := func(paths []string) {
		for i, p := range paths {
			if !filepath.IsAbs(p) && basePath != "" {
				paths[i] = filepath.Join(basePath, p)
			}
		}
	}
	resolve(scenario.Rules)
	resolve(scenario.DataFiles)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Rules) == 0 {
		return fmt.Errorf("rules list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range s.Rules {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("rule file not found: %s", p)
		}
	}
	for _, p := range s.DataFiles {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("data file not found: %s", p)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCasePasses, AssertCaseFails:
		if a.Rule == "" || a.Case == "" {
			return fmt.Errorf("assertions[%d]: rule and case are required for %s", index, a.Type)
		}
		if a.Type == AssertCasePasses && a.Message != "" {
			return fmt.Errorf("assertions[%d]: message only applies to case_fails", index)
		}
	case AssertCaseCount:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for case_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for case_count", index)
		}
	case AssertSuiteOrder:
		if len(a.Rules) == 0 {
			return fmt.Errorf("assertions[%d]: rules list is required for suite_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
