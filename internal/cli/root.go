package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/wallet/internal/config"
	"github.com/roach88/wallet/internal/exchange"
	"github.com/roach88/wallet/internal/format"
	"github.com/roach88/wallet/internal/jobs"
	"github.com/roach88/wallet/internal/logging"
	"github.com/roach88/wallet/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose     bool
	Format      string // "json" | "text"
	ConfigPath  string
	Database    string
	MetricsFile string

	// Config and Logger are resolved on first use by setup.
	Config *config.Config
	Logger *slog.Logger

	registry *prometheus.Registry
	metrics  *jobs.Metrics
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the wallet CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are reported on stderr, or on stdout as a JSON envelope with --format json.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd, opts := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		formatter.Writer = stdout
	}
	_ = formatter.Fail(err)
	return GetExitCode(err)
}

func newRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "wallet - loyalty card store",
		Long:  "Manage a local loyalty card wallet and move it between devices as CSV, JSON or YAML.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to TOML config file (default $"+config.EnvConfigPath+")")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $WALLET_DB or wallet.db)")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write task metrics to this file in Prometheus text format")

	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewCardCommand(opts))
	cmd.AddCommand(NewGroupCommand(opts))
	cmd.AddCommand(NewFormatsCommand(opts))

	return cmd, opts
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// setup loads configuration and installs the logger. Explicit flags win over
// every configuration source. Safe to call more than once.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.Config != nil {
		return nil
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if o.Database != "" {
		cfg.Database.Path = o.Database
	}

	level := cfg.Logging.Level
	if o.Verbose {
		level = "debug"
	}
	o.Logger = logging.Setup(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	o.Config = cfg

	if o.MetricsFile != "" {
		o.registry = prometheus.NewRegistry()
		if o.metrics, err = jobs.NewMetrics(o.registry); err != nil {
			return WrapExitError(ExitCommandError, "failed to register metrics", err)
		}
	}
	return nil
}

// taskOptions configures the tasks run by export and import.
func (o *RootOptions) taskOptions() []jobs.TaskOption {
	opts := []jobs.TaskOption{jobs.WithLogger(o.Logger)}
	if o.metrics != nil {
		opts = append(opts, jobs.WithMetrics(o.metrics))
	}
	return opts
}

// writeMetrics writes the task metrics to --metrics-file, if set.
func (o *RootOptions) writeMetrics() {
	if o.registry == nil {
		return
	}
	if err := prometheus.WriteToTextfile(o.MetricsFile, o.registry); err != nil {
		o.Logger.Error("failed to write metrics", "path", o.MetricsFile, "error", err)
	}
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	o.Logger.Debug("opening database", "path", o.Config.Database.Path)
	st, err := store.Open(o.Config.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func (o *RootOptions) closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		o.Logger.Error("error closing database", "error", err)
	}
}

func (o *RootOptions) engine() *exchange.Engine {
	return exchange.New(exchange.WithLogger(o.Logger))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// transferFormat resolves the interchange format: the explicit flag, then the
// file extension of path, then the configured default.
func (o *RootOptions) transferFormat(flag, path string) (format.ID, error) {
	if flag == "" {
		if id, ok := formatFromPath(path); ok {
			return id, nil
		}
		id, err := o.Config.TransferFormat()
		if err != nil {
			return "", WrapExitError(ExitCommandError, "invalid default format", err)
		}
		return id, nil
	}

	id, err := format.ParseID(flag)
	if err == nil {
		_, err = format.Lookup(id)
	}
	if err != nil {
		return "", WrapExitError(ExitCommandError, "unsupported format", err)
	}
	return id, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
