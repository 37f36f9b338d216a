package format

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wallet/internal/wallet"
)

func TestCardHeader_Order(t *testing.T) {
	assert.Equal(t, []string{
		"id", "store", "note", "cardId", "barcodeType",
		"headerColor", "headerTextColor", "starStatus", "expiry",
	}, CardHeader())
}

func TestCanonicalColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"id", ColumnID, true},
		{"_id", ColumnID, true},
		{"CARDID", ColumnCardID, true},
		{"headertextcolor", ColumnHeaderTextColor, true},
		{" starStatus ", ColumnStarStatus, true},
		{"unknown", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := canonicalColumn(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCard_AbsentColumnsUseDefaults(t *testing.T) {
	c, err := decodeCard(mapFields{ColumnStore: "store", ColumnCardID: "12345"})
	require.NoError(t, err)

	assert.Equal(t, wallet.Card{Store: "store", CardID: "12345"}, c)
}

func TestDecodeCard_MissingRequiredColumn(t *testing.T) {
	_, err := decodeCard(mapFields{ColumnStore: "store"})
	require.Error(t, err)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ColumnCardID, fe.Column)
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestDecodeCard_Colors(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    *int64
		wantErr bool
	}{
		{"empty is none", "", nil, false},
		{"integer", "1", wallet.Int64(1), false},
		{"negative", "-16777216", wallet.Int64(-16777216), false},
		{"not a number", "not a number", nil, true},
		{"float", "1.5", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := decodeCard(mapFields{ColumnCardID: "1", ColumnHeaderColor: tt.value, ColumnHeaderTextColor: tt.value})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.HeaderColor)
			assert.Equal(t, tt.want, c.HeaderTextColor)
		})
	}
}

func TestDecodeCard_StarStatusIsSoft(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"0", 0},
		{"1", 1},
		{"", 0},
		{"2", 2},
		{"text", 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c, err := decodeCard(mapFields{ColumnCardID: "1", ColumnStarStatus: tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.StarStatus)
		})
	}
}

func TestDecodeCard_Expiry(t *testing.T) {
	c, err := decodeCard(mapFields{ColumnCardID: "1", ColumnExpiry: "1700000000000"})
	require.NoError(t, err)
	require.NotNil(t, c.Expiry)
	assert.Equal(t, int64(1700000000000), c.Expiry.UnixMilli())

	c, err = decodeCard(mapFields{ColumnCardID: "1", ColumnExpiry: ""})
	require.NoError(t, err)
	assert.Nil(t, c.Expiry)

	_, err = decodeCard(mapFields{ColumnCardID: "1", ColumnExpiry: "tomorrow"})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestDecodeCard_ID(t *testing.T) {
	c, err := decodeCard(mapFields{ColumnCardID: "1", ColumnID: ""})
	require.NoError(t, err)
	assert.Zero(t, c.ID)

	c, err = decodeCard(mapFields{ColumnCardID: "1", ColumnID: "17"})
	require.NoError(t, err)
	assert.Equal(t, int64(17), c.ID)

	_, err = decodeCard(mapFields{ColumnCardID: "1", ColumnID: "abc"})
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = decodeCard(mapFields{ColumnCardID: "1", ColumnID: "-3"})
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestEncodeCard_RoundTrip(t *testing.T) {
	for _, want := range sampleDataset().Cards {
		row := encodeCard(want)
		index, err := parseCardHeader(CardHeader())
		require.NoError(t, err)

		got, err := decodeCard(csvFields{index: index, rec: row})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNewMapFields_Scalars(t *testing.T) {
	f, err := newMapFields(map[string]any{
		"_id":         int(3),
		"cardId":      "x",
		"headerColor": nil,
		"starStatus":  float64(1),
		"unknown":     []any{"ignored"},
	})
	require.NoError(t, err)

	v, ok := f.lookup(ColumnID)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	v, ok = f.lookup(ColumnHeaderColor)
	assert.True(t, ok, "null is a present, empty value")
	assert.Equal(t, "", v)

	v, _ = f.lookup(ColumnStarStatus)
	assert.Equal(t, "1", v)

	_, ok = f.lookup(ColumnNote)
	assert.False(t, ok)
}

func TestNewMapFields_RejectsNestedValues(t *testing.T) {
	_, err := newMapFields(map[string]any{"cardId": map[string]any{"a": 1}})
	assert.ErrorIs(t, err, ErrInvalidField)
}
