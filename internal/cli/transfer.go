package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wallet/internal/exchange"
	"github.com/roach88/wallet/internal/format"
	"github.com/roach88/wallet/internal/jobs"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Type   string
	Output string
}

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Type string
}

// transferResult is the JSON payload of export and import.
type transferResult struct {
	Format        string `json:"format"`
	Cards         int    `json:"cards"`
	Groups        int    `json:"groups"`
	Memberships   int    `json:"memberships"`
	Inserted      int    `json:"inserted,omitempty"`
	Updated       int    `json:"updated,omitempty"`
	GroupsCreated int    `json:"groups_created,omitempty"`
	Output        string `json:"output,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every card and group",
		Long: `Export every card, group and group membership to a file or stdout.

The format is taken from --type, otherwise from the output file extension,
otherwise from the configured default (csv).

Example:
  wallet export -o backup.csv
  wallet export -t json > backup.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "interchange format (csv|json|yaml)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Merge an export into the wallet",
		Long: `Merge an export into the wallet.

Cards are matched by id: existing cards are overwritten and their group
memberships replaced, new cards are added. The import is all-or-nothing;
a corrupt file leaves the wallet unchanged.

Example:
  wallet import backup.csv
  wallet import -t yaml - < backup.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "interchange format (csv|json|yaml)")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	id, err := opts.transferFormat(opts.Type, opts.Output)
	if err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	toFile := opts.Output != "" && opts.Output != "-"
	// The task closes Closer streams; stdout is not ours to close.
	var sink io.Writer = struct{ io.Writer }{cmd.OutOrStdout()}
	if toFile {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		sink = f
	}

	sum, err := awaitTask(commandContext(cmd), opts.RootOptions, func(l jobs.Listener) *jobs.Task {
		return jobs.NewExportTask(opts.engine(), st, sink, id, l, opts.taskOptions()...)
	})
	if err != nil {
		if toFile {
			_ = os.Remove(opts.Output)
		}
		return WrapExitError(ExitFailure, "export failed", err)
	}

	result := newTransferResult(sum)
	if !toFile {
		// stdout carries the export itself.
		formatter := opts.formatter(cmd)
		formatter.VerboseLog("Exported %d card(s), %d group(s) as %s", result.Cards, result.Groups, result.Format)
		return nil
	}
	result.Output = opts.Output
	return outputTransfer(opts.formatter(cmd), "Exported", result)
}

func runImport(opts *ImportOptions, path string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	id, err := opts.transferFormat(opts.Type, path)
	if err != nil {
		return err
	}

	var source io.Reader
	if path == "-" {
		// The task closes Closer streams; stdin is not ours to close.
		source = struct{ io.Reader }{cmd.InOrStdin()}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open input file", err)
		}
		source = f
	}

	st, err := opts.openStore()
	if err != nil {
		if c, ok := source.(io.Closer); ok {
			c.Close()
		}
		return err
	}
	defer opts.closeStore(st)

	sum, err := awaitTask(commandContext(cmd), opts.RootOptions, func(l jobs.Listener) *jobs.Task {
		return jobs.NewImportTask(opts.engine(), st, source, id, l, opts.taskOptions()...)
	})
	if err != nil {
		return WrapExitError(ExitFailure, "import failed", err)
	}
	return outputTransfer(opts.formatter(cmd), "Imported", newTransferResult(sum))
}

// awaitTask builds a task around a completion listener, starts it and blocks
// until the listener fires or the configured timeout passes.
func awaitTask(ctx context.Context, opts *RootOptions, build func(jobs.Listener) *jobs.Task) (exchange.Summary, error) {
	done := make(chan bool, 1)
	task := build(jobs.ListenerFunc(func(success bool) { done <- success }))

	ctx, cancel := context.WithTimeout(ctx, opts.Config.Transfer.Timeout)
	defer cancel()
	defer opts.writeMetrics()

	if !task.Start(ctx) {
		return exchange.Summary{}, errors.New("task already started")
	}
	opts.Logger.Debug("task started", "task", task.ID(), "kind", task.Kind())

	select {
	case success := <-done:
		if !success {
			return task.Summary(), task.Err()
		}
		return task.Summary(), nil
	case <-ctx.Done():
		return exchange.Summary{}, fmt.Errorf("waiting for %s task %s: %w", task.Kind(), task.ID(), ctx.Err())
	}
}

func newTransferResult(sum exchange.Summary) transferResult {
	return transferResult{
		Format:        string(sum.Format),
		Cards:         sum.Cards,
		Groups:        sum.Groups,
		Memberships:   sum.Memberships,
		Inserted:      sum.Inserted,
		Updated:       sum.Updated,
		GroupsCreated: sum.GroupsCreated,
	}
}

func outputTransfer(formatter *OutputFormatter, verb string, r transferResult) error {
	if formatter.Format == "json" {
		return formatter.Success(r)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s %d card(s), %d group(s) as %s\n", verb, r.Cards, r.Groups, r.Format)
	if verb == "Imported" {
		fmt.Fprintf(w, "  Inserted: %d\n", r.Inserted)
		fmt.Fprintf(w, "  Updated: %d\n", r.Updated)
		fmt.Fprintf(w, "  Groups created: %d\n", r.GroupsCreated)
	}
	if r.Output != "" {
		fmt.Fprintf(w, "  Output: %s\n", r.Output)
	}
	return nil
}

// formatFromPath infers a format from a file extension.
func formatFromPath(path string) (format.ID, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return format.CSV, true
	case ".json":
		return format.JSON, true
	case ".yaml", ".yml":
		return format.YAML, true
	default:
		return "", false
	}
}
