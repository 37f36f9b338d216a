package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wallet/internal/store"
	"github.com/roach88/wallet/internal/wallet"
)

// FixtureBarcodeType is the symbology of every seeded card.
const FixtureBarcodeType = "UPC_A"

// NewStore opens a file-backed store in t.TempDir() and closes it on cleanup.
func NewStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

// FixtureStoreName is the store name of the i-th seeded card. The comma and
// quote exercise CSV escaping.
func FixtureStoreName(i int) string { return fmt.Sprintf("store, \"%4d", i) }

// FixtureNote is the note of the i-th seeded card.
func FixtureNote(i int) string { return fmt.Sprintf("note, \"%4d", i) }

// FixtureGroupName is the name of the i-th seeded group.
func FixtureGroupName(i int) string { return fmt.Sprintf("group, \"%4d", i) }

// FixtureCard returns the i-th seeded card without an id.
func FixtureCard(i int) wallet.Card {
	return wallet.Card{
		Store:       FixtureStoreName(i),
		Note:        FixtureNote(i),
		CardID:      strconv.Itoa(i),
		BarcodeType: FixtureBarcodeType,
		HeaderColor: wallet.Int64(int64(i)),
	}
}

// SeedCards inserts cards 1..n and returns their ids in insertion order.
func SeedCards(t testing.TB, w wallet.Writer, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		id, err := w.InsertCard(context.Background(), FixtureCard(i))
		require.NoError(t, err, "seed card %d", i)
		ids = append(ids, id)
	}
	return ids
}

// SeedGroups inserts groups 1..n and returns their names.
func SeedGroups(t testing.TB, w wallet.Writer, n int) []string {
	t.Helper()
	names := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		name := FixtureGroupName(i)
		_, err := w.InsertGroup(context.Background(), name)
		require.NoError(t, err, "seed group %d", i)
		names = append(names, name)
	}
	return names
}

// Snapshot is the full comparable content of a store.
type Snapshot struct {
	Cards       []wallet.Card
	Groups      []wallet.Group
	Memberships map[int64][]string
}

// TakeSnapshot reads every card, group and membership from r.
func TakeSnapshot(t testing.TB, r wallet.Reader) Snapshot {
	t.Helper()
	ctx := context.Background()

	cards, err := r.ListCards(ctx)
	require.NoError(t, err)
	groups, err := r.ListGroups(ctx)
	require.NoError(t, err)

	members := make(map[int64][]string, len(cards))
	for _, c := range cards {
		names, err := r.CardGroups(ctx, c.ID)
		require.NoError(t, err)
		members[c.ID] = names
	}
	return Snapshot{Cards: cards, Groups: groups, Memberships: members}
}
