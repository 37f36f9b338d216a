package harness

import (
	"context"
	"fmt"

	"github.com/roach88/wallet/internal/wallet"
)

// storeState is the full comparable content of a store.
type storeState struct {
	Cards       []wallet.Card
	Groups      []wallet.Group
	Memberships map[int64][]string
}

func takeState(ctx context.Context, r wallet.Reader) (*storeState, error) {
	cards, err := r.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := r.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	members := make(map[int64][]string, len(cards))
	for _, c := range cards {
		names, err := r.CardGroups(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		members[c.ID] = names
	}
	return &storeState{Cards: cards, Groups: groups, Memberships: members}, nil
}

func (s *storeState) String() string {
	return fmt.Sprintf("%d card(s), %d group(s), memberships %v", len(s.Cards), len(s.Groups), s.Memberships)
}
