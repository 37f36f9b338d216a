package wallet

import "context"

// Reader is the read-only part of the store contract.
//
// ListCards returns cards in the store's display order; ListGroups returns
// groups in insertion order; CardGroups returns a card's group names in the
// order they were assigned.
type Reader interface {
	GetCard(ctx context.Context, id int64) (Card, error)
	ListCards(ctx context.Context) ([]Card, error)
	CardCount(ctx context.Context) (int, error)

	GetGroup(ctx context.Context, name string) (Group, error)
	ListGroups(ctx context.Context) ([]Group, error)
	GroupCount(ctx context.Context) (int, error)

	CardGroups(ctx context.Context, cardID int64) ([]string, error)
}

// Writer is the mutating part of the store contract.
type Writer interface {
	// InsertCard stores c and returns its id. A non-zero c.ID is kept;
	// otherwise the store assigns one.
	InsertCard(ctx context.Context, c Card) (int64, error)

	// UpdateCard overwrites every field of the card with id c.ID.
	// Returns ErrNotFound if no such card exists.
	UpdateCard(ctx context.Context, c Card) error

	// InsertGroup returns ErrDuplicate if the name is taken.
	InsertGroup(ctx context.Context, name string) (int64, error)

	// SetCardGroups replaces the card's memberships with groups, in order.
	SetCardGroups(ctx context.Context, cardID int64, groups []string) error
}

// Tx is a store transaction. Every operation runs inside the transaction
// until Commit or Rollback. Rollback after Commit is a no-op.
type Tx interface {
	Reader
	Writer
	Commit() error
	Rollback() error
}

// Gateway is the full store contract required by the import/export engine.
type Gateway interface {
	Reader
	Writer
	Begin(ctx context.Context) (Tx, error)
}
