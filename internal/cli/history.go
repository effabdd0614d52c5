package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/ontaudit/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Rule  string // only runs of this rule
	RunID string // show the cases of this run
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "Show recorded audit runs",
		Long: `List the runs recorded by "audit --history", oldest first, or the cases
of one run with --run.

Examples:
  ontaudit history runs.db
  ontaudit history runs.db --rule subclass-reduction
  ontaudit history runs.db --run 0190b8f2-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rule, "rule", "", "only show runs of this rule")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the cases of this run")

	return cmd
}

func runHistory(opts *HistoryOptions, dbPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if err := checkPath(dbPath, false); err != nil {
		return formatter.Fail(ExitCommandError, "cannot open history", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot open history",
			&LoadError{Code: ErrCodeStoreFailed, Message: "open failed", Path: dbPath, Err: err})
	}
	defer st.Close()

	if opts.RunID != "" {
		cases, err := st.ReadCases(cmd.Context(), opts.RunID)
		if err != nil {
			return formatter.Fail(ExitCommandError, "cannot read cases", err)
		}
		rows := make([][]string, len(cases))
		for i, c := range cases {
			status := "pass"
			if !c.Passed {
				status = "fail"
			}
			rows[i] = []string{strconv.FormatInt(c.Seq, 10), c.Name, status, c.Message}
		}
		return formatter.Table([]string{"seq", "case", "status", "message"}, rows)
	}

	runs, err := st.ReadRuns(cmd.Context(), opts.Rule)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot read runs", err)
	}
	if len(runs) == 0 && !formatter.IsJSON() {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			strconv.FormatInt(r.Seq, 10),
			r.ID,
			r.Rule,
			strconv.Itoa(r.Cases),
			strconv.Itoa(r.Failures),
			r.EngineVersion,
		}
	}
	return formatter.Table([]string{"seq", "run", "rule", "cases", "failures", "engine"}, rows)
}
