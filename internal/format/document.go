package format

import (
	"errors"

	"github.com/roach88/wallet/internal/wallet"
)

// documentVersion tags JSON and YAML documents.
const documentVersion = 2

// document is the written shape shared by the JSON and YAML adapters.
type document struct {
	Version     int              `json:"version" yaml:"version"`
	Groups      []string         `json:"groups" yaml:"groups"`
	Cards       []cardDocument   `json:"cards" yaml:"cards"`
	Memberships []memberDocument `json:"memberships" yaml:"memberships"`
}

type cardDocument struct {
	ID              int64  `json:"id" yaml:"id"`
	Store           string `json:"store" yaml:"store"`
	Note            string `json:"note" yaml:"note"`
	CardID          string `json:"cardId" yaml:"cardId"`
	BarcodeType     string `json:"barcodeType" yaml:"barcodeType"`
	HeaderColor     *int64 `json:"headerColor" yaml:"headerColor"`
	HeaderTextColor *int64 `json:"headerTextColor" yaml:"headerTextColor"`
	StarStatus      int    `json:"starStatus" yaml:"starStatus"`
	Expiry          *int64 `json:"expiry" yaml:"expiry"`
}

type memberDocument struct {
	CardID int64  `json:"cardId" yaml:"cardId"`
	Group  string `json:"groupName" yaml:"groupName"`
}

// sourceDocument is the read shape. Cards stay untyped so that the column
// codec applies the same presence rules as for CSV.
type sourceDocument struct {
	Version     int              `json:"version" yaml:"version"`
	Groups      []string         `json:"groups" yaml:"groups"`
	Cards       []map[string]any `json:"cards" yaml:"cards"`
	Memberships []memberDocument `json:"memberships" yaml:"memberships"`
}

func newDocument(d *Dataset) document {
	doc := document{
		Version:     documentVersion,
		Groups:      make([]string, 0, len(d.Groups)),
		Cards:       make([]cardDocument, 0, len(d.Cards)),
		Memberships: make([]memberDocument, 0, len(d.Memberships)),
	}
	for _, g := range d.Groups {
		doc.Groups = append(doc.Groups, g.Name)
	}
	for _, c := range d.Cards {
		cd := cardDocument{
			ID:              c.ID,
			Store:           c.Store,
			Note:            c.Note,
			CardID:          c.CardID,
			BarcodeType:     c.BarcodeType,
			HeaderColor:     c.HeaderColor,
			HeaderTextColor: c.HeaderTextColor,
			StarStatus:      c.StarStatus,
		}
		if c.Expiry != nil {
			cd.Expiry = wallet.Int64(c.Expiry.UnixMilli())
		}
		doc.Cards = append(doc.Cards, cd)
	}
	for _, m := range d.Memberships {
		doc.Memberships = append(doc.Memberships, memberDocument{CardID: m.CardID, Group: m.Group})
	}
	return doc
}

// dataset converts a decoded document, applying the column codec to every
// card object.
func (doc *sourceDocument) dataset() (*Dataset, error) {
	if doc.Version != documentVersion {
		return nil, malformed(0, "unsupported document version %d", doc.Version)
	}

	d := &Dataset{}
	for _, name := range doc.Groups {
		d.Groups = append(d.Groups, wallet.Group{Name: name})
	}
	for i, obj := range doc.Cards {
		if obj == nil {
			return nil, &FieldError{Record: i + 1, Column: ColumnCardID, Err: errMissingColumn}
		}
		f, err := newMapFields(obj)
		if err != nil {
			return nil, atRecord(err, i+1)
		}
		c, err := decodeCard(f)
		if err != nil {
			return nil, atRecord(err, i+1)
		}
		d.Cards = append(d.Cards, c)
	}
	for _, m := range doc.Memberships {
		d.Memberships = append(d.Memberships, wallet.Membership{CardID: m.CardID, Group: m.Group})
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func atRecord(err error, record int) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		fe.Record = record
	}
	return err
}
