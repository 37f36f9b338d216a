package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/wallet/internal/wallet"
)

// expiryLayout is the date format accepted by --expiry and shown by card show.
const expiryLayout = "2006-01-02"

// CardAddOptions holds flags for card add.
type CardAddOptions struct {
	*RootOptions
	Store       string
	Note        string
	CardID      string
	BarcodeType string
	HeaderColor string
	TextColor   string
	Expiry      string
	Starred     bool
	Groups      []string
}

// cardView is the JSON and text rendering of a card.
type cardView struct {
	ID              int64    `json:"id"`
	Store           string   `json:"store"`
	Note            string   `json:"note,omitempty"`
	CardID          string   `json:"card_id"`
	BarcodeType     string   `json:"barcode_type,omitempty"`
	HeaderColor     *int64   `json:"header_color,omitempty"`
	HeaderTextColor *int64   `json:"header_text_color,omitempty"`
	Starred         bool     `json:"starred"`
	Expiry          string   `json:"expiry,omitempty"`
	Groups          []string `json:"groups,omitempty"`
}

// NewCardCommand creates the card command group.
func NewCardCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage cards",
	}

	cmd.AddCommand(newCardAddCommand(rootOpts))
	cmd.AddCommand(newCardListCommand(rootOpts))
	cmd.AddCommand(newCardShowCommand(rootOpts))
	cmd.AddCommand(newCardDeleteCommand(rootOpts))
	cmd.AddCommand(newCardGroupsCommand(rootOpts))

	return cmd
}

func newCardAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CardAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a card",
		Long: `Add a card to the wallet.

Example:
  wallet card add --store "Corner Shop" --card-id 0123456789 --barcode-type EAN_13 --group food`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCardAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "store name (required)")
	cmd.Flags().StringVar(&opts.Note, "note", "", "free text note")
	cmd.Flags().StringVar(&opts.CardID, "card-id", "", "barcode payload (required)")
	cmd.Flags().StringVar(&opts.BarcodeType, "barcode-type", "", "barcode symbology, e.g. CODE_128")
	cmd.Flags().StringVar(&opts.HeaderColor, "header-color", "", "header color as a packed integer")
	cmd.Flags().StringVar(&opts.TextColor, "header-text-color", "", "header text color as a packed integer")
	cmd.Flags().StringVar(&opts.Expiry, "expiry", "", "expiry date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.Starred, "star", false, "mark the card as starred")
	cmd.Flags().StringArrayVarP(&opts.Groups, "group", "g", nil, "assign to an existing group (repeatable)")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("card-id")

	return cmd
}

func newCardListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List cards, starred first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCardList(rootOpts, cmd)
		},
	}
}

func newCardShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one card and its groups",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCardShow(rootOpts, args[0], cmd)
		},
	}
}

func newCardDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a card",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCardDelete(rootOpts, args[0], cmd)
		},
	}
}

func newCardGroupsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "groups <id> [group...]",
		Short: "Replace a card's groups",
		Long: `Replace a card's group memberships with the listed groups, in order.
With no groups the card is removed from every group.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCardGroups(rootOpts, args[0], args[1:], cmd)
		},
	}
}

func runCardAdd(opts *CardAddOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	card, err := opts.card()
	if err != nil {
		return err
	}

	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx := commandContext(cmd)
	tx, err := st.Begin(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to add card", err)
	}
	defer tx.Rollback()

	id, err := tx.InsertCard(ctx, card)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to add card", err)
	}
	if len(opts.Groups) > 0 {
		if err := tx.SetCardGroups(ctx, id, opts.Groups); err != nil {
			return WrapExitError(ExitFailure, "failed to assign groups", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return WrapExitError(ExitFailure, "failed to add card", err)
	}
	opts.Logger.Debug("card added", "id", id, "groups", len(opts.Groups))

	card.ID = id
	view := newCardView(card, opts.Groups)
	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(view)
	}
	fmt.Fprintf(formatter.Writer, "✓ Added card %d (%s)\n", id, card.Store)
	return nil
}

// card builds and validates the card described by the flags.
func (o *CardAddOptions) card() (wallet.Card, error) {
	c := wallet.Card{
		Store:       o.Store,
		Note:        o.Note,
		CardID:      o.CardID,
		BarcodeType: o.BarcodeType,
	}
	if o.Starred {
		c.StarStatus = 1
	}

	var err error
	if c.HeaderColor, err = parseColorFlag("header-color", o.HeaderColor); err != nil {
		return c, err
	}
	if c.HeaderTextColor, err = parseColorFlag("header-text-color", o.TextColor); err != nil {
		return c, err
	}
	if o.Expiry != "" {
		t, err := time.ParseInLocation(expiryLayout, o.Expiry, time.UTC)
		if err != nil {
			return c, WrapExitError(ExitCommandError, "invalid --expiry", err)
		}
		c.Expiry = &t
	}

	if err := c.Validate(); err != nil {
		return c, WrapExitError(ExitCommandError, "invalid card", err)
	}
	return c, nil
}

func parseColorFlag(name, value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(value, 0, 64)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --"+name, err)
	}
	return wallet.Int64(v), nil
}

func runCardList(opts *RootOptions, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx := commandContext(cmd)
	cards, err := st.ListCards(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list cards", err)
	}

	views := make([]cardView, 0, len(cards))
	for _, c := range cards {
		groups, err := st.CardGroups(ctx, c.ID)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list cards", err)
		}
		views = append(views, newCardView(c, groups))
	}

	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(views)
	}

	if len(views) == 0 {
		fmt.Fprintln(formatter.Writer, "No cards")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t\tSTORE\tCARD ID\tGROUPS")
	for _, v := range views {
		star := ""
		if v.Starred {
			star = "★"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.ID, star, v.Store, v.CardID, strings.Join(v.Groups, ", "))
	}
	return tw.Flush()
}

func runCardShow(opts *RootOptions, arg string, cmd *cobra.Command) error {
	id, err := parseCardID(arg)
	if err != nil {
		return err
	}
	if err := opts.setup(cmd); err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx := commandContext(cmd)
	card, err := st.GetCard(ctx, id)
	if err != nil {
		return cardLookupError(id, err)
	}
	groups, err := st.CardGroups(ctx, id)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read card groups", err)
	}

	view := newCardView(card, groups)
	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(view)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Card %d\n", view.ID)
	fmt.Fprintf(w, "  Store: %s\n", view.Store)
	fmt.Fprintf(w, "  Card ID: %s\n", view.CardID)
	if view.BarcodeType != "" {
		fmt.Fprintf(w, "  Barcode: %s\n", view.BarcodeType)
	}
	if view.Note != "" {
		fmt.Fprintf(w, "  Note: %s\n", view.Note)
	}
	if view.Expiry != "" {
		fmt.Fprintf(w, "  Expires: %s\n", view.Expiry)
	}
	if view.HeaderColor != nil {
		fmt.Fprintf(w, "  Header color: %d\n", *view.HeaderColor)
	}
	if view.HeaderTextColor != nil {
		fmt.Fprintf(w, "  Header text color: %d\n", *view.HeaderTextColor)
	}
	fmt.Fprintf(w, "  Starred: %t\n", view.Starred)
	if len(view.Groups) > 0 {
		fmt.Fprintf(w, "  Groups: %s\n", strings.Join(view.Groups, ", "))
	}
	return nil
}

func runCardDelete(opts *RootOptions, arg string, cmd *cobra.Command) error {
	id, err := parseCardID(arg)
	if err != nil {
		return err
	}
	if err := opts.setup(cmd); err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	if err := st.DeleteCard(commandContext(cmd), id); err != nil {
		return cardLookupError(id, err)
	}

	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(map[string]int64{"deleted": id})
	}
	fmt.Fprintf(formatter.Writer, "✓ Deleted card %d\n", id)
	return nil
}

func runCardGroups(opts *RootOptions, arg string, groups []string, cmd *cobra.Command) error {
	id, err := parseCardID(arg)
	if err != nil {
		return err
	}
	if err := opts.setup(cmd); err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer opts.closeStore(st)

	ctx := commandContext(cmd)
	if _, err := st.GetCard(ctx, id); err != nil {
		return cardLookupError(id, err)
	}
	if err := st.SetCardGroups(ctx, id, groups); err != nil {
		return WrapExitError(ExitFailure, "failed to set card groups", err)
	}

	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"id": id, "groups": groups})
	}
	if len(groups) == 0 {
		fmt.Fprintf(formatter.Writer, "✓ Card %d removed from all groups\n", id)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "✓ Card %d groups: %s\n", id, strings.Join(groups, ", "))
	return nil
}

func parseCardID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid card id %q", arg))
	}
	return id, nil
}

func cardLookupError(id int64, err error) error {
	if errors.Is(err, wallet.ErrNotFound) {
		return WrapExitError(ExitCommandError, fmt.Sprintf("card %d not found", id), err)
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("card %d", id), err)
}

func newCardView(c wallet.Card, groups []string) cardView {
	v := cardView{
		ID:              c.ID,
		Store:           c.Store,
		Note:            c.Note,
		CardID:          c.CardID,
		BarcodeType:     c.BarcodeType,
		HeaderColor:     c.HeaderColor,
		HeaderTextColor: c.HeaderTextColor,
		Starred:         c.Starred(),
		Groups:          groups,
	}
	if c.Expiry != nil {
		v.Expiry = c.Expiry.UTC().Format(expiryLayout)
	}
	return v
}
