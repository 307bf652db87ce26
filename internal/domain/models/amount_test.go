package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAmount_DecodesAnyNumericShape(t *testing.T) {
	dec, err := primitive.ParseDecimal128("99.5")
	require.NoError(t, err)

	cases := []struct {
		name string
		in   any
		want Amount
	}{
		{"double", 12.25, 12.25},
		{"int32", int32(7), 7},
		{"int64", int64(1 << 40), 1 << 40},
		{"decimal", dec, 99.5},
		{"string", "5000", 5000},
		{"grouped string", " 1,200.50 ", 1200.5},
		{"junk string", "call me", 0},
		{"bool", true, 0},
		{"null", nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := bson.Marshal(bson.D{{Key: "value", Value: tc.in}})
			require.NoError(t, err)

			var out struct {
				Value Amount `bson:"value"`
			}
			require.NoError(t, bson.Unmarshal(raw, &out))
			assert.Equal(t, tc.want, out.Value)
		})
	}
}

func TestLeadKey(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid.Hex(), Lead{ID: oid}.Key())
	assert.Equal(t, "legacy-1", Lead{ID: "legacy-1"}.Key())
	assert.Empty(t, Lead{}.Key())
}
