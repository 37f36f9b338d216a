package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/wallet/internal/format"
	"github.com/roach88/wallet/internal/wallet"
)

// Import merges the stream r into gw.
//
// The source is parsed and validated completely before the store is touched.
// The merge then runs in one transaction: each card is upserted by id in
// source order and its memberships are replaced wholesale. Cards without an id
// get fresh ids above every id in the store and in the source. Groups that do not
// exist yet are created. Any failure rolls the transaction back.
func (e *Engine) Import(ctx context.Context, gw wallet.Gateway, r io.Reader, id format.ID) (Summary, error) {
	sum := Summary{Format: id}

	adapter, err := e.registry.Lookup(id)
	if err != nil {
		e.logger.Warn("import rejected", "format", id, "error", err)
		return sum, &Error{Op: "import", Kind: KindFormat, Err: err}
	}

	d, err := adapter.Read(r)
	if err != nil {
		ierr := readError(err)
		e.logger.Warn("import source rejected", "format", id, "kind", ierr.Kind, "error", err)
		return sum, ierr
	}
	sum.Cards = len(d.Cards)
	sum.Groups = len(d.Groups)

	tx, err := gw.Begin(ctx)
	if err != nil {
		e.logger.Error("import begin failed", "format", id, "error", err)
		return sum, &Error{Op: "import", Kind: KindStore, Err: err}
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	if err := merge(ctx, tx, d, &sum); err != nil {
		e.logger.Error("import merge failed, rolling back", "format", id, "error", err)
		return Summary{Format: id}, &Error{Op: "import", Kind: KindStore, Err: err}
	}
	if err := tx.Commit(); err != nil {
		e.logger.Error("import commit failed", "format", id, "error", err)
		return Summary{Format: id}, &Error{Op: "import", Kind: KindStore, Err: fmt.Errorf("commit: %w", err)}
	}

	e.logger.Info("import complete",
		"format", id,
		"cards", sum.Cards,
		"inserted", sum.Inserted,
		"updated", sum.Updated,
		"groups_created", sum.GroupsCreated,
		"memberships", sum.Memberships,
	)
	return sum, nil
}

// merge applies d inside tx.
func merge(ctx context.Context, tx wallet.Tx, d *format.Dataset, sum *Summary) error {
	groups := &groupSet{tx: tx, known: make(map[string]bool)}
	for _, g := range d.Groups {
		created, err := groups.ensure(ctx, g.Name)
		if err != nil {
			return err
		}
		if created {
			sum.GroupsCreated++
		}
	}

	byCard := make(map[int64][]string)
	for _, m := range d.Memberships {
		byCard[m.CardID] = append(byCard[m.CardID], m.Group)
	}

	next, err := firstFreeID(ctx, tx, d.Cards)
	if err != nil {
		return err
	}

	for _, c := range d.Cards {
		explicit := c.ID != 0
		if !explicit {
			c.ID = next
			next++
		}
		id, inserted, err := upsertCard(ctx, tx, c)
		if err != nil {
			return err
		}
		if inserted {
			sum.Inserted++
		} else {
			sum.Updated++
		}

		var names []string
		if explicit {
			names = byCard[c.ID]
		}
		for _, name := range names {
			created, err := groups.ensure(ctx, name)
			if err != nil {
				return err
			}
			if created {
				sum.GroupsCreated++
			}
		}
		if err := tx.SetCardGroups(ctx, id, names); err != nil {
			return fmt.Errorf("set groups of card %d: %w", id, err)
		}
		sum.Memberships += len(names)
	}
	return nil
}

// firstFreeID returns an id above every card in the store and every explicit
// id in the source, so cards without an id never take one a later record
// claims.
func firstFreeID(ctx context.Context, tx wallet.Tx, cards []wallet.Card) (int64, error) {
	var max int64
	for _, c := range cards {
		if c.ID > max {
			max = c.ID
		}
	}
	stored, err := tx.ListCards(ctx)
	if err != nil {
		return 0, fmt.Errorf("list cards: %w", err)
	}
	for _, c := range stored {
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1, nil
}

// upsertCard inserts c or overwrites the card with the same id. It reports
// the card's id and whether a new row was created.
func upsertCard(ctx context.Context, tx wallet.Tx, c wallet.Card) (int64, bool, error) {
	if c.ID == 0 {
		id, err := tx.InsertCard(ctx, c)
		if err != nil {
			return 0, false, fmt.Errorf("insert card: %w", err)
		}
		return id, true, nil
	}

	_, err := tx.GetCard(ctx, c.ID)
	switch {
	case err == nil:
		if err := tx.UpdateCard(ctx, c); err != nil {
			return 0, false, fmt.Errorf("update card %d: %w", c.ID, err)
		}
		return c.ID, false, nil
	case errors.Is(err, wallet.ErrNotFound):
		id, err := tx.InsertCard(ctx, c)
		if err != nil {
			return 0, false, fmt.Errorf("insert card %d: %w", c.ID, err)
		}
		return id, true, nil
	default:
		return 0, false, fmt.Errorf("get card %d: %w", c.ID, err)
	}
}

// groupSet creates groups on first reference.
type groupSet struct {
	tx    wallet.Tx
	known map[string]bool
}

func (s *groupSet) ensure(ctx context.Context, name string) (bool, error) {
	if s.known[name] {
		return false, nil
	}
	_, err := s.tx.GetGroup(ctx, name)
	switch {
	case err == nil:
		s.known[name] = true
		return false, nil
	case !errors.Is(err, wallet.ErrNotFound):
		return false, fmt.Errorf("get group %q: %w", name, err)
	}
	if _, err := s.tx.InsertGroup(ctx, name); err != nil {
		return false, fmt.Errorf("insert group %q: %w", name, err)
	}
	s.known[name] = true
	return true, nil
}
