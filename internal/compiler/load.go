package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/ontaudit/internal/ir"
)

// IsRuleFile reports whether path has a rule-definition extension.
func IsRuleFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".cue":
		return true
	}
	return false
}

// LoadFile reads a rule file, choosing the format by extension.
func LoadFile(path string) ([]ir.RuleSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(path, data)
	case ".cue":
		return CompileCUE(path, data)
	}
	return nil, fmt.Errorf("%s: unsupported rule file type %q", path, filepath.Ext(path))
}
