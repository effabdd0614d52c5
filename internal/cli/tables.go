package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ontaudit/internal/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Sources SourceOptions

	OutputFile string // zip archive destination
}

// TableSummary describes one table written by the report command.
type TableSummary struct {
	Rule string `json:"rule"`
	Rows int    `json:"rows"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run rules and write their results as CSV tables",
		Long: `Run every rule in report mode: the final bindings of each rule are
written as a CSV table, one "<rule>.csv" entry per rule in a zip archive.
No case is judged.

Examples:
  ontaudit report --rule-dir ./reports --endpoint http://localhost:3030/ds/query -o out.zip`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	opts.Sources.addRuleFlags(cmd)
	opts.Sources.addServiceFlags(cmd)
	cmd.Flags().StringVarP(&opts.OutputFile, "output-file", "o", "", "zip archive to write (required)")
	_ = cmd.MarkFlagRequired("output-file")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sess, err := openSession(opts.RootOptions, &opts.Sources, nil, nil)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot load rules", err)
	}
	defer sess.services.Close()

	tables, err := sess.battery.RunTables(cmd.Context())
	if err != nil {
		opts.logger().Error("report aborted", "completed_tables", len(tables), "error", err)
		return formatter.Fail(ExitCommandError, "report aborted",
			&LoadError{Code: ErrCodeExecFailed, Message: "rule execution failed", Err: err})
	}

	var buf bytes.Buffer
	if err := report.WriteArchive(&buf, tables); err != nil {
		return formatter.Fail(ExitCommandError, "cannot build archive", err)
	}
	if err := os.WriteFile(opts.OutputFile, buf.Bytes(), 0o644); err != nil {
		return formatter.Fail(ExitCommandError, "cannot write archive",
			&LoadError{Code: ErrCodeWriteFailed, Message: "write failed", Path: opts.OutputFile, Err: err})
	}

	summary := make([]TableSummary, len(tables))
	for i, t := range tables {
		summary[i] = TableSummary{Rule: t.Name, Rows: len(t.Rows)}
	}
	if formatter.IsJSON() {
		return formatter.Success(map[string]any{"output": opts.OutputFile, "tables": summary})
	}
	for _, s := range summary {
		fmt.Fprintf(formatter.Writer, "✓ %s.csv (%d rows)\n", s.Rule, s.Rows)
	}
	fmt.Fprintf(formatter.Writer, "Archive written to %s\n", opts.OutputFile)
	return nil
}
