package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/wallet/internal/wallet"
)

// queries implements the wallet.Reader and wallet.Writer operations over
// either the database or an open transaction.
type queries struct {
	q querier
}

const cardColumns = `id, store, note, card_id, barcode_type, header_color, header_text_color, star_status, expiry`

// InsertCard inserts a card and returns its id.
// A non-zero c.ID is used as the row id; otherwise SQLite assigns one.
// Returns wallet.ErrDuplicate if c.ID is already taken.
func (q *queries) InsertCard(ctx context.Context, c wallet.Card) (int64, error) {
	var id any
	if c.ID != 0 {
		id = c.ID
	}

	result, err := q.q.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		c.Store,
		c.Note,
		c.CardID,
		c.BarcodeType,
		nullInt64(c.HeaderColor),
		nullInt64(c.HeaderTextColor),
		c.StarStatus,
		nullExpiry(c),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert card %d: %w", c.ID, wallet.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert card: %w", err)
	}

	newID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert card: last insert id: %w", err)
	}
	return newID, nil
}

// UpdateCard overwrites all fields of the card with id c.ID.
func (q *queries) UpdateCard(ctx context.Context, c wallet.Card) error {
	result, err := q.q.ExecContext(ctx, `
		UPDATE cards
		SET store = ?, note = ?, card_id = ?, barcode_type = ?,
		    header_color = ?, header_text_color = ?, star_status = ?, expiry = ?
		WHERE id = ?
	`,
		c.Store,
		c.Note,
		c.CardID,
		c.BarcodeType,
		nullInt64(c.HeaderColor),
		nullInt64(c.HeaderTextColor),
		c.StarStatus,
		nullExpiry(c),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update card %d: %w", c.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update card %d: rows affected: %w", c.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update card %d: %w", c.ID, wallet.ErrNotFound)
	}
	return nil
}

// GetCard returns the card with the given id, or wallet.ErrNotFound.
func (q *queries) GetCard(ctx context.Context, id int64) (wallet.Card, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return wallet.Card{}, fmt.Errorf("get card %d: %w", id, wallet.ErrNotFound)
	}
	if err != nil {
		return wallet.Card{}, fmt.Errorf("get card %d: %w", id, err)
	}
	return c, nil
}

// ListCards returns all cards: starred first, then by store name, then id.
// Returns an empty slice (not nil) if there are no cards.
func (q *queries) ListCards(ctx context.Context) ([]wallet.Card, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		ORDER BY star_status DESC, store COLLATE NOCASE ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := []wallet.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

// CardCount returns the number of cards.
func (q *queries) CardCount(ctx context.Context) (int, error) {
	var n int
	if err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

// DeleteCard removes a card and its memberships.
func (q *queries) DeleteCard(ctx context.Context, id int64) error {
	result, err := q.q.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete card %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete card %d: %w", id, wallet.ErrNotFound)
	}
	return nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(s rowScanner) (wallet.Card, error) {
	var (
		c               wallet.Card
		headerColor     sql.NullInt64
		headerTextColor sql.NullInt64
		expiry          sql.NullInt64
	)
	err := s.Scan(
		&c.ID,
		&c.Store,
		&c.Note,
		&c.CardID,
		&c.BarcodeType,
		&headerColor,
		&headerTextColor,
		&c.StarStatus,
		&expiry,
	)
	if err != nil {
		return wallet.Card{}, err
	}

	if headerColor.Valid {
		c.HeaderColor = wallet.Int64(headerColor.Int64)
	}
	if headerTextColor.Valid {
		c.HeaderTextColor = wallet.Int64(headerTextColor.Int64)
	}
	if expiry.Valid {
		c.Expiry = wallet.ExpiryFromMillis(expiry.Int64)
	}
	return c, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// nullExpiry stores the expiry as Unix milliseconds.
func nullExpiry(c wallet.Card) sql.NullInt64 {
	if c.Expiry == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: c.Expiry.UnixMilli(), Valid: true}
}
