// internal/domain/models/amount.go
package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Amount is a monetary value. It is written as a double and read from any
// numeric BSON type or a numeric string; anything else reads as zero.
type Amount float64

// Float64 returns a as a float64.
func (a Amount) Float64() float64 { return float64(a) }

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	*a = 0
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Double:
		if f, ok := rv.DoubleOK(); ok {
			*a = Amount(f)
		}
	case bsontype.Int32:
		if n, ok := rv.Int32OK(); ok {
			*a = Amount(n)
		}
	case bsontype.Int64:
		if n, ok := rv.Int64OK(); ok {
			*a = Amount(n)
		}
	case bsontype.Decimal128:
		if d, ok := rv.Decimal128OK(); ok {
			*a = parseAmount(d.String())
		}
	case bsontype.String:
		if s, ok := rv.StringValueOK(); ok {
			*a = parseAmount(s)
		}
	}
	return nil
}

// ParseAmount reads a numeric string such as "5000", "5,000.50" or " 12 ".
// The second result is false when s is not a number.
func ParseAmount(s string) (Amount, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	return Amount(f), true
}

func parseAmount(s string) Amount {
	a, _ := ParseAmount(s)
	return a
}
