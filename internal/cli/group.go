package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/wallet/internal/wallet"
)

// groupView is one row of group list.
type groupView struct {
	Name  string `json:"name"`
	Cards int    `json:"cards"`
}

// NewGroupCommand creates the group command group.
func NewGroupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "add <name>",
		Short:         "Create a group",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroupAdd(rootOpts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List groups with their card counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroupList(rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a group; its cards are kept",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroupDelete(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

func runGroupAdd(opts *RootOptions, name string, cmd *cobra.Command) error {
	if strings.TrimSpace(name) == "" {
		return NewExitError(ExitCommandError, "group name must not be empty")
	}
	if err := opts.setup(cmd); err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	if _, err := st.InsertGroup(commandContext(cmd), name); err != nil {
		if errors.Is(err, wallet.ErrDuplicate) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("group %q already exists", name), err)
		}
		return WrapExitError(ExitFailure, "failed to add group", err)
	}

	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(groupView{Name: name})
	}
	fmt.Fprintf(formatter.Writer, "✓ Added group %s\n", name)
	return nil
}

func runGroupList(opts *RootOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx := commandContext(cmd)
	groups, err := st.ListGroups(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list groups", err)
	}
	memberships, err := st.Memberships(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list groups", err)
	}

	counts := make(map[string]int, len(groups))
	for _, m := range memberships {
		counts[m.Group]++
	}
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, groupView{Name: g.Name, Cards: counts[g.Name]})
	}

	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(views)
	}

	if len(views) == 0 {
		fmt.Fprintln(formatter.Writer, "No groups")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCARDS")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%d\n", v.Name, v.Cards)
	}
	return tw.Flush()
}

func runGroupDelete(opts *RootOptions, name string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	if err := st.DeleteGroup(commandContext(cmd), name); err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("group %q not found", name), err)
		}
		return WrapExitError(ExitFailure, "failed to delete group", err)
	}

	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"deleted": name})
	}
	fmt.Fprintf(formatter.Writer, "✓ Deleted group %s\n", name)
	return nil
}
