package format

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/wallet/internal/wallet"
)

// Card column names, latest layout.
const (
	ColumnID              = "id"
	ColumnStore           = "store"
	ColumnNote            = "note"
	ColumnCardID          = "cardId"
	ColumnBarcodeType     = "barcodeType"
	ColumnHeaderColor     = "headerColor"
	ColumnHeaderTextColor = "headerTextColor"
	ColumnStarStatus      = "starStatus"
	ColumnExpiry          = "expiry"
)

// Membership column names.
const (
	ColumnMemberCard  = "cardId"
	ColumnMemberGroup = "groupName"
)

// ColumnGroupName heads the group section.
const ColumnGroupName = "name"

var errMissingColumn = errors.New("required column is missing")

// column describes how one card field is read and written.
//
// Absent columns are never decoded: the Card zero value is the default on
// absence for every field. decode sees only present values, including "",
// and returns an error only for hard validation failures.
type column struct {
	name     string
	required bool
	decode   func(c *wallet.Card, v string) error
	encode   func(c wallet.Card) string
}

var columns = []column{
	{
		name: ColumnID,
		decode: func(c *wallet.Card, v string) error {
			if v == "" {
				return nil
			}
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return errors.New("not an integer")
			}
			if id <= 0 {
				return errors.New("must be positive")
			}
			c.ID = id
			return nil
		},
		encode: func(c wallet.Card) string { return strconv.FormatInt(c.ID, 10) },
	},
	{
		name:   ColumnStore,
		decode: func(c *wallet.Card, v string) error { c.Store = v; return nil },
		encode: func(c wallet.Card) string { return c.Store },
	},
	{
		name:   ColumnNote,
		decode: func(c *wallet.Card, v string) error { c.Note = v; return nil },
		encode: func(c wallet.Card) string { return c.Note },
	},
	{
		name:     ColumnCardID,
		required: true,
		decode:   func(c *wallet.Card, v string) error { c.CardID = v; return nil },
		encode:   func(c wallet.Card) string { return c.CardID },
	},
	{
		name:   ColumnBarcodeType,
		decode: func(c *wallet.Card, v string) error { c.BarcodeType = v; return nil },
		encode: func(c wallet.Card) string { return c.BarcodeType },
	},
	{
		name:   ColumnHeaderColor,
		decode: func(c *wallet.Card, v string) error { return decodeColor(&c.HeaderColor, v) },
		encode: func(c wallet.Card) string { return encodeOptional(c.HeaderColor) },
	},
	{
		name:   ColumnHeaderTextColor,
		decode: func(c *wallet.Card, v string) error { return decodeColor(&c.HeaderTextColor, v) },
		encode: func(c wallet.Card) string { return encodeOptional(c.HeaderTextColor) },
	},
	{
		name: ColumnStarStatus,
		decode: func(c *wallet.Card, v string) error {
			// Soft field: anything unparseable falls back to unstarred.
			n, err := strconv.Atoi(v)
			if err != nil {
				n = 0
			}
			c.StarStatus = n
			return nil
		},
		encode: func(c wallet.Card) string { return strconv.Itoa(c.StarStatus) },
	},
	{
		name: ColumnExpiry,
		decode: func(c *wallet.Card, v string) error {
			if v == "" {
				c.Expiry = nil
				return nil
			}
			ms, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return errors.New("not a millisecond timestamp")
			}
			c.Expiry = wallet.ExpiryFromMillis(ms)
			return nil
		},
		encode: func(c wallet.Card) string {
			if c.Expiry == nil {
				return ""
			}
			return strconv.FormatInt(c.Expiry.UnixMilli(), 10)
		},
	},
}

// columnAliases maps historical header spellings onto current names.
var columnAliases = map[string]string{
	"_id": ColumnID,
}

// columnIndex maps lower-cased column names to their canonical spelling.
var columnIndex = func() map[string]string {
	m := make(map[string]string, len(columns)+len(columnAliases))
	for _, col := range columns {
		m[strings.ToLower(col.name)] = col.name
	}
	for alias, name := range columnAliases {
		m[alias] = name
	}
	return m
}()

// CardHeader returns the card columns of the latest layout, in write order.
func CardHeader() []string {
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.name
	}
	return header
}

// canonicalColumn resolves a source column name. Unknown names return false
// and are ignored by readers.
func canonicalColumn(name string) (string, bool) {
	canonical, ok := columnIndex[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// fields is one card record viewed by canonical column name.
type fields interface {
	lookup(column string) (value string, present bool)
}

// decodeCard applies every column rule to one record. A returned error is
// always a *FieldError without position; callers fill in Line or Record.
func decodeCard(f fields) (wallet.Card, error) {
	var c wallet.Card
	for _, col := range columns {
		v, ok := f.lookup(col.name)
		if !ok {
			if col.required {
				return wallet.Card{}, &FieldError{Column: col.name, Err: errMissingColumn}
			}
			continue
		}
		if err := col.decode(&c, v); err != nil {
			return wallet.Card{}, &FieldError{Column: col.name, Value: v, Err: err}
		}
	}
	return c, nil
}

// encodeCard renders a card in CardHeader order.
func encodeCard(c wallet.Card) []string {
	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = col.encode(c)
	}
	return row
}

func decodeColor(dst **int64, v string) error {
	if v == "" {
		*dst = nil
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return errors.New("not an integer")
	}
	*dst = wallet.Int64(n)
	return nil
}

func encodeOptional(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

// mapFields adapts a decoded document object to the column codec.
// Keys are matched case-insensitively; null is a present, empty value.
type mapFields map[string]string

func newMapFields(obj map[string]any) (mapFields, error) {
	f := make(mapFields, len(obj))
	for key, raw := range obj {
		name, ok := canonicalColumn(key)
		if !ok {
			continue
		}
		v, err := scalarString(raw)
		if err != nil {
			return nil, &FieldError{Column: name, Value: fmt.Sprint(raw), Err: err}
		}
		f[name] = v
	}
	return f, nil
}

func (f mapFields) lookup(column string) (string, bool) {
	v, ok := f[column]
	return v, ok
}

// scalarString renders a decoded JSON/YAML scalar as column text.
func scalarString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case fmt.Stringer:
		// json.Number
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
