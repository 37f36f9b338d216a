package store

import (
	"context"
	"fmt"

	"github.com/roach88/wallet/internal/wallet"
)

// SetCardGroups replaces the card's memberships with groups, in order.
// Old memberships are deleted and the new set inserted; nothing is merged.
//
// Note: the card and every group must exist (foreign key constraints).
// A name listed twice fails with wallet.ErrDuplicate.
func (q *queries) SetCardGroups(ctx context.Context, cardID int64, groups []string) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM card_memberships WHERE card_id = ?`, cardID); err != nil {
		return fmt.Errorf("set card groups %d: clear: %w", cardID, err)
	}

	for i, name := range groups {
		_, err := q.q.ExecContext(ctx, `
			INSERT INTO card_memberships (card_id, group_name, position)
			VALUES (?, ?, ?)
		`, cardID, name, i)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("set card groups %d: group %q: %w", cardID, name, wallet.ErrDuplicate)
			}
			return fmt.Errorf("set card groups %d: group %q: %w", cardID, name, err)
		}
	}
	return nil
}

// CardGroups returns the card's group names in assignment order.
// Returns an empty slice (not nil) if the card has no memberships.
func (q *queries) CardGroups(ctx context.Context, cardID int64) ([]string, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT group_name
		FROM card_memberships
		WHERE card_id = ?
		ORDER BY position ASC
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("query card groups %d: %w", cardID, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan card group: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card groups: %w", err)
	}
	return names, nil
}

// Memberships returns every membership, ordered by card id then position.
func (q *queries) Memberships(ctx context.Context) ([]wallet.Membership, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT card_id, group_name
		FROM card_memberships
		ORDER BY card_id ASC, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	memberships := []wallet.Membership{}
	for rows.Next() {
		var m wallet.Membership
		if err := rows.Scan(&m.CardID, &m.Group); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return memberships, nil
}
