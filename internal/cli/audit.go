package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ontaudit/internal/battery"
	"github.com/roach88/ontaudit/internal/metrics"
	"github.com/roach88/ontaudit/internal/report"
	"github.com/roach88/ontaudit/internal/store"
)

// ReportFormats defines the allowed audit report formats.
var ReportFormats = []string{"junit", "json", "text"}

// AuditOptions holds flags for the audit command.
type AuditOptions struct {
	*RootOptions
	Sources SourceOptions

	OutputFile   string // report destination; empty means stdout
	ReportFormat string // junit | json | text
	History      string // SQLite database recording every suite
	MetricsFile  string // Prometheus textfile written after the run
}

// AuditSummary is the status payload of a completed audit.
type AuditSummary struct {
	Rules    int    `json:"rules"`
	Cases    int    `json:"cases"`
	Failures int    `json:"failures"`
	Output   string `json:"output,omitempty"`
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run rules and write a pass/fail report",
		Long: `Run every rule against the configured query services and write a
report with one suite per rule and one case per judged result.

Rules run one at a time, in the order their sources are given. The first
rule that fails to execute aborts the audit and no report is written.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Configuration or execution error

Examples:
  ontaudit audit --rule-dir ./rules --endpoint http://localhost:3030/ds/query
  ontaudit audit --rule-tree ./rules --store ./ontology.db --report-format text
  ontaudit audit --rule-file owl.yaml --dataset ds --output-file report.xml --history runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(opts, cmd)
		},
	}

	opts.Sources.addRuleFlags(cmd)
	opts.Sources.addServiceFlags(cmd)
	cmd.Flags().StringVarP(&opts.OutputFile, "output-file", "o", "", "report file (default stdout)")
	cmd.Flags().StringVar(&opts.ReportFormat, "report-format", "junit", "report format (junit|json|text)")
	cmd.Flags().StringVar(&opts.History, "history", "", "SQLite database to record runs in")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")

	return cmd
}

func runAudit(opts *AuditOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	if !slices.Contains(ReportFormats, opts.ReportFormat) {
		return formatter.Fail(ExitCommandError, "invalid report format",
			fmt.Errorf("%q: must be one of %v", opts.ReportFormat, ReportFormats))
	}

	var recorder battery.Recorder
	if opts.History != "" {
		hist, err := store.Open(opts.History)
		if err != nil {
			return formatter.Fail(ExitCommandError, "cannot open history",
				&LoadError{Code: ErrCodeStoreFailed, Message: "cannot open store", Path: opts.History, Err: err})
		}
		defer hist.Close()
		recorder = hist
	}

	var m *metrics.Metrics
	if opts.MetricsFile != "" {
		m = metrics.New()
	}

	sess, err := openSession(opts.RootOptions, &opts.Sources, m, recorder)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot load rules", err)
	}
	defer sess.services.Close()

	rep, err := sess.battery.Run(cmd.Context())
	if err != nil {
		logger.Error("audit aborted", "completed_suites", len(rep.Suites), "error", err)
		return formatter.Fail(ExitCommandError, "audit aborted",
			&LoadError{Code: ErrCodeExecFailed, Message: "rule execution failed", Err: err})
	}

	if err := writeMetrics(m, opts.MetricsFile); err != nil {
		return formatter.Fail(ExitCommandError, "cannot write metrics", err)
	}

	var buf bytes.Buffer
	if err := renderReport(&buf, rep, opts.ReportFormat); err != nil {
		return formatter.Fail(ExitCommandError, "cannot render report", err)
	}

	cases, failures := rep.Totals()
	summary := AuditSummary{Rules: len(rep.Suites), Cases: cases, Failures: failures, Output: opts.OutputFile}

	if opts.OutputFile == "" {
		// The report is the command output.
		if _, err := io.Copy(cmd.OutOrStdout(), &buf); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(opts.OutputFile, buf.Bytes(), 0o644); err != nil {
			return formatter.Fail(ExitCommandError, "cannot write report",
				&LoadError{Code: ErrCodeWriteFailed, Message: "write failed", Path: opts.OutputFile, Err: err})
		}
		if err := outputAuditSummary(formatter, summary); err != nil {
			return err
		}
	}

	logger.Info("audit finished", "rules", summary.Rules, "cases", cases, "failures", failures)
	if failures > 0 {
		// Case failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d case(s) failed", failures, cases))
	}
	return nil
}

func renderReport(w io.Writer, rep *report.Report, format string) error {
	switch format {
	case "json":
		return report.WriteJSON(w, rep)
	case "text":
		return report.WriteText(w, rep)
	default:
		return report.WriteJUnit(w, rep)
	}
}

func writeMetrics(m *metrics.Metrics, path string) error {
	if path == "" {
		return nil
	}
	if err := m.WriteTextfile(path); err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Message: "write failed", Path: path, Err: err}
	}
	return nil
}

func outputAuditSummary(formatter *OutputFormatter, s AuditSummary) error {
	if formatter.IsJSON() {
		return formatter.Success(s)
	}

	w := formatter.Writer
	if s.Failures > 0 {
		fmt.Fprintf(w, "✗ %d of %d case(s) failed across %d rule(s)\n", s.Failures, s.Cases, s.Rules)
	} else {
		fmt.Fprintf(w, "✓ %d case(s) passed across %d rule(s)\n", s.Cases, s.Rules)
	}
	fmt.Fprintf(w, "Report written to %s\n", s.Output)
	return nil
}
