package wallet

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Card is one loyalty-program membership record.
type Card struct {
	// ID is unique within the store. Zero means "not yet assigned".
	ID int64

	// Store is the display name of the issuing store.
	Store string

	// Note is free text and may be empty.
	Note string

	// Expiry is nil when the card never expires.
	Expiry *time.Time

	// CardID is the barcode payload.
	CardID string

	// BarcodeType names the barcode symbology. Empty means no format recorded.
	BarcodeType string

	// HeaderColor and HeaderTextColor are optional packed color values.
	HeaderColor     *int64
	HeaderTextColor *int64

	// StarStatus is 1 for starred cards, 0 otherwise. Other integers are
	// stored as given.
	StarStatus int
}

// Starred reports whether the card is marked as a favourite.
func (c Card) Starred() bool {
	return c.StarStatus == 1
}

// Validate checks the fields an interactive caller must supply.
// Import does not call Validate: imported free text is accepted as-is.
func (c Card) Validate() error {
	if strings.TrimSpace(c.Store) == "" {
		return errors.New("card: store name is required")
	}
	if c.ID < 0 {
		return fmt.Errorf("card: invalid id %d", c.ID)
	}
	return nil
}

// Group is a user-defined named tag. The name is the identity.
type Group struct {
	Name string
}

// Membership links a card to a group.
type Membership struct {
	CardID int64
	Group  string
}

// ExpiryFromMillis converts Unix milliseconds into an expiry value.
func ExpiryFromMillis(ms int64) *time.Time {
	t := time.UnixMilli(ms).UTC()
	return &t
}

// Int64 returns a pointer to v. Used for the optional color fields.
func Int64(v int64) *int64 {
	return &v
}
