package exchange

import (
	"context"
	"fmt"
	"io"

	"github.com/roach88/wallet/internal/format"
	"github.com/roach88/wallet/internal/wallet"
)

// Export writes every group, card and membership in src to w.
//
// The full snapshot is read before the first byte is written. Card order is
// the store's listing order. Export never mutates src.
func (e *Engine) Export(ctx context.Context, src wallet.Reader, w io.Writer, id format.ID) (Summary, error) {
	sum := Summary{Format: id}

	adapter, err := e.registry.Lookup(id)
	if err != nil {
		e.logger.Warn("export rejected", "format", id, "error", err)
		return sum, &Error{Op: "export", Kind: KindFormat, Err: err}
	}

	d, err := snapshot(ctx, src)
	if err != nil {
		e.logger.Error("export snapshot failed", "format", id, "error", err)
		return sum, &Error{Op: "export", Kind: KindStore, Err: err}
	}
	sum.Cards = len(d.Cards)
	sum.Groups = len(d.Groups)
	sum.Memberships = len(d.Memberships)

	if err := adapter.Write(w, d); err != nil {
		e.logger.Error("export write failed", "format", id, "error", err)
		return sum, &Error{Op: "export", Kind: KindSink, Err: err}
	}

	e.logger.Info("export complete",
		"format", id,
		"cards", sum.Cards,
		"groups", sum.Groups,
		"memberships", sum.Memberships,
	)
	return sum, nil
}

// snapshot reads the store into a Dataset. Memberships follow card order and,
// within a card, assignment order.
func snapshot(ctx context.Context, src wallet.Reader) (*format.Dataset, error) {
	groups, err := src.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	cards, err := src.ListCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}

	d := &format.Dataset{Groups: groups, Cards: cards}
	for _, c := range cards {
		names, err := src.CardGroups(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("groups of card %d: %w", c.ID, err)
		}
		for _, name := range names {
			d.Memberships = append(d.Memberships, wallet.Membership{CardID: c.ID, Group: name})
		}
	}
	return d, nil
}
