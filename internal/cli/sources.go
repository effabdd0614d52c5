package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ontaudit/internal/battery"
	"github.com/roach88/ontaudit/internal/compiler"
	"github.com/roach88/ontaudit/internal/config"
	"github.com/roach88/ontaudit/internal/engine"
	"github.com/roach88/ontaudit/internal/ir"
	"github.com/roach88/ontaudit/internal/metrics"
	"github.com/roach88/ontaudit/internal/query"
	"github.com/roach88/ontaudit/internal/sparql"
	"github.com/roach88/ontaudit/internal/store"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNoRules     = "E002" // No rule sources given or found
	ErrCodeNoService   = "E003" // No query service configured
	ErrCodeLoadFailed  = "E004" // Rule file failed to load or build
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeDuplicate   = "E006" // Two rules share a name
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeExecFailed  = "E008" // Rule execution aborted
	ErrCodeStoreFailed = "E009" // Store open or load failed
)

// LoadError represents an error that occurred while assembling the rules
// and services of a command.
type LoadError struct {
	Code    string
	Message string
	Path    string // File the error refers to, if any
	Err     error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SourceOptions holds the rule and data-source flags shared by audit,
// report and validate. Empty values fall back to the environment.
type SourceOptions struct {
	RuleFiles []string
	RuleDirs  []string
	RuleTrees []string

	Endpoint string
	Host     string
	Port     int
	Dataset  string
	Timeout  time.Duration
	Store    string

	PrefixFile string
	IRIFile    string
}

// addRuleFlags registers the repeatable rule-source flags.
func (o *SourceOptions) addRuleFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.RuleFiles, "rule-file", nil, "rule file (YAML or CUE); repeatable")
	cmd.Flags().StringArrayVar(&o.RuleDirs, "rule-dir", nil, "directory of rule files, non-recursive; repeatable")
	cmd.Flags().StringArrayVar(&o.RuleTrees, "rule-tree", nil, "directory tree of rule files; repeatable")
	cmd.Flags().StringVar(&o.PrefixFile, "prefix-file", "", "YAML namespace prefix file (env ONTAUDIT_PREFIX_FILE)")
}

// addServiceFlags registers the query-service flags.
func (o *SourceOptions) addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Endpoint, "endpoint", "", "SPARQL query URL (env ONTAUDIT_ENDPOINT)")
	cmd.Flags().StringVar(&o.Host, "host", "", "SPARQL host, used with --dataset (env ONTAUDIT_HOST)")
	cmd.Flags().IntVar(&o.Port, "port", 0, "SPARQL port, used with --dataset (env ONTAUDIT_PORT)")
	cmd.Flags().StringVar(&o.Dataset, "dataset", "", "SPARQL dataset name (env ONTAUDIT_DATASET)")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 0, "SPARQL request timeout (env ONTAUDIT_TIMEOUT)")
	cmd.Flags().StringVar(&o.Store, "store", "", "SQLite quad store for the sql dialect (env ONTAUDIT_STORE)")
	cmd.Flags().StringVar(&o.IRIFile, "iri-file", "", "file of named graph IRIs, one per line")
}

// resolve layers the flags over cfg and returns the merged configuration.
func (o *SourceOptions) resolve(cfg *config.Config) *config.Config {
	merged := *cfg
	if o.Endpoint != "" {
		merged.Endpoint = o.Endpoint
	}
	if o.Host != "" {
		merged.Host = o.Host
	}
	if o.Port != 0 {
		merged.Port = o.Port
	}
	if o.Dataset != "" {
		merged.Dataset = o.Dataset
	}
	if o.Timeout != 0 {
		merged.Timeout = o.Timeout
	}
	if o.Store != "" {
		merged.Store = o.Store
	}
	if o.PrefixFile != "" {
		merged.PrefixFile = o.PrefixFile
	}
	return &merged
}

// hasRules reports whether any rule source was given.
func (o *SourceOptions) hasRules() bool {
	return len(o.RuleFiles)+len(o.RuleDirs)+len(o.RuleTrees) > 0
}

// Services is the set of query services opened for a command.
type Services struct {
	Router query.Router
	Store  *store.Store // nil unless a store is configured

	closers []io.Closer
}

// Close releases every opened service.
func (s *Services) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// openServices connects the configured query services. A SPARQL endpoint
// serves the sparql dialect and a store serves the sql dialect; at least
// one is required.
func openServices(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	svc := &Services{Router: query.Router{}}

	if endpoint := cfg.QueryEndpoint(); endpoint != "" {
		svc.Router[query.SPARQL] = sparql.New(endpoint,
			sparql.WithTimeout(cfg.Timeout),
			sparql.WithLogger(logger),
		)
		logger.Debug("sparql service", "endpoint", endpoint)
	}

	if cfg.Store != "" {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeStoreFailed, Message: "cannot open store", Path: cfg.Store, Err: err}
		}
		svc.Store = st
		svc.closers = append(svc.closers, st)
		svc.Router[query.SQL] = st
		logger.Debug("sql service", "store", cfg.Store)
	}

	if len(svc.Router) == 0 {
		return nil, &LoadError{
			Code:    ErrCodeNoService,
			Message: "no query service: set --endpoint, --dataset or --store",
		}
	}
	return svc, nil
}

// globals builds the per-run template context from the prefix file and
// the IRI file.
func (o *SourceOptions) globals(cfg *config.Config) (query.Globals, error) {
	prefixes := ir.BuiltinPrefixes()
	if cfg.PrefixFile != "" {
		p, err := config.LoadPrefixes(cfg.PrefixFile)
		if err != nil {
			return query.Globals{}, &LoadError{Code: ErrCodeLoadFailed, Message: "invalid prefix file", Path: cfg.PrefixFile, Err: err}
		}
		prefixes = p
	}

	g := query.Globals{Prefixes: prefixes, Graphs: map[string][]ir.IRI{}}
	if o.IRIFile != "" {
		iris, err := config.LoadIRIs(o.IRIFile)
		if err != nil {
			return query.Globals{}, &LoadError{Code: ErrCodeLoadFailed, Message: "invalid IRI file", Path: o.IRIFile, Err: err}
		}
		g.Graphs["named"] = iris
	}
	return g, nil
}

// loadRules adds every rule source to b: files first, then directories,
// then trees, each in flag order.
func (o *SourceOptions) loadRules(b *battery.Battery) error {
	if !o.hasRules() {
		return &LoadError{Code: ErrCodeNoRules, Message: "no rules: set --rule-file, --rule-dir or --rule-tree"}
	}

	for _, path := range o.RuleFiles {
		if err := checkPath(path, false); err != nil {
			return err
		}
		if err := b.AddFile(path); err != nil {
			return ruleError(path, err)
		}
	}
	for _, dir := range o.RuleDirs {
		if err := checkPath(dir, true); err != nil {
			return err
		}
		if err := b.AddDir(dir); err != nil {
			return ruleError(dir, err)
		}
	}
	for _, root := range o.RuleTrees {
		if err := checkPath(root, true); err != nil {
			return err
		}
		if err := b.AddTree(root); err != nil {
			return ruleError(root, err)
		}
	}

	if b.Len() == 0 {
		return &LoadError{Code: ErrCodeNoRules, Message: "no rules found in the given sources"}
	}
	return nil
}

func checkPath(path string, dir bool) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &LoadError{Code: ErrCodeNotFound, Message: "path not found", Path: path}
	}
	if err != nil {
		return &LoadError{Code: ErrCodeNotFound, Message: "cannot access path", Path: path, Err: err}
	}
	if dir && !info.IsDir() {
		return &LoadError{Code: ErrCodeNotFound, Message: "not a directory", Path: path}
	}
	if !dir && info.IsDir() {
		return &LoadError{Code: ErrCodeNotFound, Message: "is a directory, use --rule-dir", Path: path}
	}
	return nil
}

// ruleError maps battery configuration errors to load error codes.
func ruleError(path string, err error) error {
	var cfgErr *battery.ConfigError
	if errors.As(err, &cfgErr) && cfgErr.Code == battery.ErrCodeDuplicateRule {
		return &LoadError{Code: ErrCodeDuplicate, Message: "duplicate rule name", Path: path, Err: err}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: "cannot load rules", Path: path, Err: err}
}

// session is everything a rule-running command needs.
type session struct {
	services *Services
	battery  *battery.Battery
	metrics  *metrics.Metrics
}

// openSession resolves configuration, opens services and loads the rules.
// The caller must close the returned session's services.
func openSession(root *RootOptions, src *SourceOptions, m *metrics.Metrics, recorder battery.Recorder) (*session, error) {
	logger := root.logger()
	cfg := src.resolve(root.settings())

	g, err := src.globals(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := openServices(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []battery.Option{
		battery.WithEngine(engine.New(
			engine.WithLogger(logger),
			engine.WithMetrics(m),
		)),
		battery.WithBuilder(compiler.NewBuilder(svc.Router, g.Prefixes)),
		battery.WithGlobals(g),
		battery.WithLogger(logger),
	}
	if recorder != nil {
		opts = append(opts, battery.WithRecorder(recorder))
	}
	b := battery.New(opts...)

	if err := src.loadRules(b); err != nil {
		svc.Close()
		return nil, err
	}
	logger.Debug("rules loaded", "rules", b.Len())
	return &session{services: svc, battery: b, metrics: m}, nil
}
