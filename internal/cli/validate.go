package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/ontaudit/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Sources SourceOptions
}

// RuleSummary describes one valid rule.
type RuleSummary struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Stages int    `json:"stages"`
}

// ValidationIssue is a validation error located in a rule file.
type ValidationIssue struct {
	File string `json:"file"`
	Rule string `json:"rule,omitempty"`
	compiler.ValidationError
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Rules  []RuleSummary     `json:"rules"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate rule files without running them",
		Long: `Load and validate rule files without contacting any query service.

Performs syntax checking, schema validation and duplicate-name detection
across every given source, and lists the rules that would run. Faster than
an audit for development feedback.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	opts.Sources.addRuleFlags(cmd)

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	files, err := ruleFiles(&opts.Sources)
	if err != nil {
		return outputValidateError(formatter, err)
	}
	formatter.VerboseLog("Found %d rule file(s)", len(files))

	result := validateFiles(files, formatter)
	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}
	if len(result.Rules) == 0 {
		return outputValidateError(formatter, &LoadError{Code: ErrCodeNoRules, Message: "no rules found in the given sources"})
	}
	return outputValidateSuccess(formatter, result)
}

// ruleFiles lists the rule files named by the sources in the order a
// battery would load them.
func ruleFiles(src *SourceOptions) ([]string, error) {
	if !src.hasRules() {
		return nil, &LoadError{Code: ErrCodeNoRules, Message: "no rules: set --rule-file, --rule-dir or --rule-tree"}
	}

	var files []string
	for _, path := range src.RuleFiles {
		if err := checkPath(path, false); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	for _, dir := range src.RuleDirs {
		if err := checkPath(dir, true); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "cannot read directory", Path: dir, Err: err}
		}
		for _, entry := range entries {
			if !entry.IsDir() && compiler.IsRuleFile(entry.Name()) {
				files = append(files, filepath.Join(dir, entry.Name()))
			}
		}
	}
	for _, root := range src.RuleTrees {
		if err := checkPath(root, true); err != nil {
			return nil, err
		}
		var tree []string
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && compiler.IsRuleFile(path) {
				tree = append(tree, path)
			}
			return nil
		})
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "cannot walk directory", Path: root, Err: err}
		}
		sort.Strings(tree)
		files = append(files, tree...)
	}
	return files, nil
}

// validateFiles loads every file and validates every rule in it,
// collecting all problems rather than stopping at the first.
func validateFiles(files []string, formatter *OutputFormatter) ValidationResult {
	result := ValidationResult{Rules: []RuleSummary{}}
	seen := make(map[string]string)

	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)

		specs, err := compiler.LoadFile(file)
		if err != nil {
			result.Errors = append(result.Errors, loadIssue(file, err))
			continue
		}

		for i := range specs {
			spec := &specs[i]
			errs := compiler.Validate(spec)
			for _, e := range errs {
				result.Errors = append(result.Errors, ValidationIssue{File: file, Rule: spec.Name, ValidationError: e})
			}
			if spec.Name != "" {
				if prev, dup := seen[spec.Name]; dup {
					result.Errors = append(result.Errors, ValidationIssue{
						File: file,
						Rule: spec.Name,
						ValidationError: compiler.ValidationError{
							Field:   "name",
							Message: fmt.Sprintf("rule %q already defined in %s", spec.Name, prev),
							Code:    ErrCodeDuplicate,
						},
					})
					continue
				}
				seen[spec.Name] = file
			}
			if len(errs) == 0 {
				result.Rules = append(result.Rules, RuleSummary{Name: spec.Name, Source: file, Stages: len(spec.Stages)})
			}
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// loadIssue converts a file load error, keeping the CUE line when known.
func loadIssue(file string, err error) ValidationIssue {
	var cErr *compiler.CompileError
	if errors.As(err, &cErr) {
		line := 0
		if cErr.Pos.IsValid() {
			line = cErr.Pos.Line()
		}
		return ValidationIssue{File: file, ValidationError: compiler.ValidationError{
			Field:   cErr.Field,
			Message: cErr.Message,
			Code:    ErrCodeLoadFailed,
			Line:    line,
		}}
	}
	return ValidationIssue{File: file, ValidationError: compiler.ValidationError{
		Field:   "load",
		Message: err.Error(),
		Code:    ErrCodeLoadFailed,
	}}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d rule(s) valid\n", len(result.Rules))
	for _, r := range result.Rules {
		fmt.Fprintf(formatter.Writer, "  %s (%s, %d stage(s))\n", r.Name, r.Source, r.Stages)
	}
	return nil
}

// outputValidateError outputs an error that prevented validation.
func outputValidateError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code = loadErr.Code
	}
	_ = formatter.Error(code, err.Error(), nil)
	// Source errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, code, err)
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.IsJSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, e := range errs {
		loc := e.File
		if e.Line > 0 {
			loc = fmt.Sprintf("%s:%d", e.File, e.Line)
		}
		if e.Rule != "" {
			loc += " (" + e.Rule + ")"
		}
		fmt.Fprintln(formatter.Writer, loc)
		fmt.Fprintf(formatter.Writer, "  %s\n\n", e.ValidationError.Error())
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
