package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/query"
	"github.com/roach88/ontaudit/internal/report"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Sources SourceOptions
	Dialect string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <query-file>",
		Short: "Run one query and print its rows",
		Long: `Expand a query template and run it once against the configured service,
printing one row per result. Useful for developing rule stages.

The dialect defaults to sql when only --store is given, sparql otherwise.

Examples:
  ontaudit query --endpoint http://localhost:3030/ds/query classes.rq
  ontaudit query --store ontology.db --iri-file graphs.txt classes.sql`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	opts.Sources.addServiceFlags(cmd)
	cmd.Flags().StringVar(&opts.Sources.PrefixFile, "prefix-file", "", "YAML namespace prefix file (env ONTAUDIT_PREFIX_FILE)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "query dialect (sparql|sql)")

	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	text, err := os.ReadFile(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot read query",
			&LoadError{Code: ErrCodeNotFound, Message: "read failed", Path: path, Err: err})
	}

	cfg := opts.Sources.resolve(opts.settings())
	g, err := opts.Sources.globals(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot load settings", err)
	}
	svc, err := openServices(cfg, opts.logger())
	if err != nil {
		return formatter.Fail(ExitCommandError, "cannot open services", err)
	}
	defer svc.Close()

	name := opts.Dialect
	if name == "" && !svc.Router.Has(query.SPARQL) {
		name = string(query.SQL)
	}
	d, err := query.ParseDialect(name)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid dialect", err)
	}

	rows, err := runOnce(cmd, svc.Router, g, path, string(text), d)
	if err != nil {
		return formatter.Fail(ExitCommandError, "query failed",
			&LoadError{Code: ErrCodeExecFailed, Message: "query failed", Path: path, Err: err})
	}

	t := &report.Table{Name: path, Rows: rows}
	cols := t.Columns()
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(cols))
		for j, c := range cols {
			cells[i][j] = cell(row, c)
		}
	}
	if err := formatter.Table(cols, cells); err != nil {
		return err
	}
	if !formatter.IsJSON() {
		fmt.Fprintf(formatter.Writer, "(%d row(s))\n", len(rows))
	}
	return nil
}

// runOnce expands and runs a template with the trigger binding.
func runOnce(cmd *cobra.Command, svc query.Service, g query.Globals, name, text string, d query.Dialect) ([]ir.Binding, error) {
	t, err := query.NewTemplate(name, text, d)
	if err != nil {
		return nil, err
	}
	expanded, err := t.Expand(g)
	if err != nil {
		return nil, err
	}
	req, err := t.Prepare(expanded, ir.EmptyBinding())
	if err != nil {
		return nil, err
	}
	return svc.Select(cmd.Context(), req)
}

// cell renders a binding value in N-Triples form so IRIs and literals
// stay distinguishable.
func cell(b ir.Binding, name string) string {
	if t, ok := b.Get(name); ok {
		return t.NT()
	}
	return report.NilCell
}
