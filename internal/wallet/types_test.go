package wallet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCard_Validate(t *testing.T) {
	tests := []struct {
		name    string
		card    Card
		wantErr bool
	}{
		{"valid", Card{Store: "Grocer", CardID: "123"}, false},
		{"empty store", Card{Store: "", CardID: "123"}, true},
		{"blank store", Card{Store: "   "}, true},
		{"negative id", Card{ID: -1, Store: "Grocer"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.card.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCard_Starred(t *testing.T) {
	assert.True(t, Card{StarStatus: 1}.Starred())
	assert.False(t, Card{StarStatus: 0}.Starred())
	assert.False(t, Card{StarStatus: 2}.Starred())
}

func TestExpiryFromMillis(t *testing.T) {
	exp := ExpiryFromMillis(2147483648)
	require.NotNil(t, exp)
	assert.Equal(t, int64(2147483648), exp.UnixMilli())
	assert.Equal(t, time.UTC, exp.Location())
}

func TestInt64(t *testing.T) {
	p := Int64(7)
	require.NotNil(t, p)
	assert.Equal(t, int64(7), *p)
}
