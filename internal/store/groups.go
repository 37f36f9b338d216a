package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/wallet/internal/wallet"
)

// InsertGroup creates a group. Returns wallet.ErrDuplicate if the name exists.
func (q *queries) InsertGroup(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, errors.New("insert group: name is required")
	}

	result, err := q.q.ExecContext(ctx, `INSERT INTO card_groups (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert group %q: %w", name, wallet.ErrDuplicate)
		}
		return 0, fmt.Errorf("insert group %q: %w", name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert group %q: last insert id: %w", name, err)
	}
	return id, nil
}

// GetGroup returns the named group, or wallet.ErrNotFound.
func (q *queries) GetGroup(ctx context.Context, name string) (wallet.Group, error) {
	var g wallet.Group
	err := q.q.QueryRowContext(ctx, `SELECT name FROM card_groups WHERE name = ?`, name).Scan(&g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return wallet.Group{}, fmt.Errorf("get group %q: %w", name, wallet.ErrNotFound)
	}
	if err != nil {
		return wallet.Group{}, fmt.Errorf("get group %q: %w", name, err)
	}
	return g, nil
}

// ListGroups returns all groups in insertion order.
func (q *queries) ListGroups(ctx context.Context) ([]wallet.Group, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT name FROM card_groups ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := []wallet.Group{}
	for rows.Next() {
		var g wallet.Group
		if err := rows.Scan(&g.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return groups, nil
}

// GroupCount returns the number of groups.
func (q *queries) GroupCount(ctx context.Context) (int, error) {
	var n int
	if err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM card_groups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return n, nil
}

// DeleteGroup removes a group and every membership referencing it.
func (q *queries) DeleteGroup(ctx context.Context, name string) error {
	result, err := q.q.ExecContext(ctx, `DELETE FROM card_groups WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete group %q: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete group %q: rows affected: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete group %q: %w", name, wallet.ErrNotFound)
	}
	return nil
}
