package exchange

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wallet/internal/store"
	"github.com/roach88/wallet/internal/testutil"
	"github.com/roach88/wallet/internal/wallet"
)

var errInjected = errors.New("injected store failure")

func newTestEngine() *Engine {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// seedGroupFixture stores cards 1..10 with groups A, B, C and the
// memberships 1→{A}, 2→{A,B}, 3→{A,B,C}.
func seedGroupFixture(t *testing.T, s *store.Store) []int64 {
	t.Helper()
	ctx := context.Background()

	ids := testutil.SeedCards(t, s, 10)
	for _, name := range []string{"A", "B", "C"} {
		_, err := s.InsertGroup(ctx, name)
		require.NoError(t, err)
	}
	require.NoError(t, s.SetCardGroups(ctx, ids[0], []string{"A"}))
	require.NoError(t, s.SetCardGroups(ctx, ids[1], []string{"A", "B"}))
	require.NoError(t, s.SetCardGroups(ctx, ids[2], []string{"A", "B", "C"}))
	return ids
}

// seedMixedCards stores cards covering every optional field combination.
func seedMixedCards(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	cards := []wallet.Card{
		{Store: "Plain", CardID: "1"},
		{Store: "Starred", CardID: "2", StarStatus: 1, BarcodeType: "QR_CODE"},
		{Store: "Colors", Note: "multi\r\nline, \"quoted\"\nend", CardID: "3",
			HeaderColor: wallet.Int64(-16777216), HeaderTextColor: wallet.Int64(-1)},
		{Store: "Expiring", CardID: "4", Expiry: wallet.ExpiryFromMillis(1893456000000)},
		{Store: "Empty note", Note: "", CardID: "5", StarStatus: 1,
			Expiry: wallet.ExpiryFromMillis(1500000000123)},
		{Store: "Windows\r\nline", Note: "trailing\r", CardID: "6"},
	}
	for _, c := range cards {
		_, err := s.InsertCard(ctx, c)
		require.NoError(t, err)
	}
	_, err := s.InsertGroup(ctx, "Food")
	require.NoError(t, err)
	_, err = s.InsertGroup(ctx, "Fuel, Travel")
	require.NoError(t, err)
	require.NoError(t, s.SetCardGroups(ctx, 2, []string{"Fuel, Travel", "Food"}))
	require.NoError(t, s.SetCardGroups(ctx, 4, []string{"Food"}))
}

// faultyGateway wraps a store and fails the n-th InsertCard inside a
// transaction.
type faultyGateway struct {
	*store.Store
	failOnInsert int
	begins       int
}

func (g *faultyGateway) Begin(ctx context.Context) (wallet.Tx, error) {
	g.begins++
	tx, err := g.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, failOnInsert: g.failOnInsert}, nil
}

type faultyTx struct {
	wallet.Tx
	failOnInsert int
	inserts      int
}

func (tx *faultyTx) InsertCard(ctx context.Context, c wallet.Card) (int64, error) {
	tx.inserts++
	if tx.inserts == tx.failOnInsert {
		return 0, errInjected
	}
	return tx.Tx.InsertCard(ctx, c)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }
