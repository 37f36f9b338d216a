package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wallet/internal/format"
)

// NewFormatsCommand creates the formats command.
func NewFormatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "formats",
		Short:         "List the supported interchange formats",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := format.Default().IDs()
			formatter := rootOpts.formatter(cmd)
			if formatter.Format == "json" {
				return formatter.Success(ids)
			}
			for i, id := range ids {
				if i == 0 {
					fmt.Fprintf(formatter.Writer, "%s (canonical)\n", id)
					continue
				}
				fmt.Fprintln(formatter.Writer, id)
			}
			return nil
		},
	}
}
