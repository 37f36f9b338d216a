package format

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/wallet/internal/wallet"
)

// sampleDataset exercises quoting, multi-line text and every optional field.
func sampleDataset() *Dataset {
	return &Dataset{
		Groups: []wallet.Group{{Name: "Group, One"}, {Name: "Two"}},
		Cards: []wallet.Card{
			{
				ID:              1,
				Store:           `Shop "A"`,
				Note:            "line1\nline2",
				CardID:          "12345",
				BarcodeType:     "QR_CODE",
				HeaderColor:     wallet.Int64(-16777216),
				HeaderTextColor: wallet.Int64(-1),
				StarStatus:      1,
				Expiry:          wallet.ExpiryFromMillis(1700000000000),
			},
			{
				ID:     2,
				Store:  "Plain",
				CardID: "0042",
			},
		},
		Memberships: []wallet.Membership{
			{CardID: 1, Group: "Group, One"},
			{CardID: 1, Group: "Two"},
			{CardID: 2, Group: "Two"},
		},
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
