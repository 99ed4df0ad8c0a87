package models

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// storedPlaces bounds the fractional digits written to Decimal128.
const storedPlaces = 12

// Decimal is an exact decimal used for money and measurements. It is stored as
// Decimal128 and rendered in JSON as a number with two decimal places.
type Decimal struct {
	decimal.Decimal
}

func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{Decimal: d}
}

func DecimalFromInt(v int64) Decimal {
	return Decimal{Decimal: decimal.NewFromInt(v)}
}

// MarshalBSONValue always writes Decimal128 so stored amounts stay exact.
func (d Decimal) MarshalBSONValue() (bsontype.Type, []byte, error) {
	value, err := primitive.ParseDecimal128(d.Decimal.Round(storedPlaces).String())
	if err != nil {
		return 0, nil, fmt.Errorf("cannot encode %s as Decimal128: %w", d.Decimal.String(), err)
	}
	return bson.MarshalValue(value)
}

// UnmarshalBSONValue accepts Decimal128 plus the numeric and string types older
// documents may carry.
func (d *Decimal) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		d.Decimal = decimal.Zero
		return nil
	case bsontype.Decimal128:
		var value primitive.Decimal128
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		parsed, err := decimal.NewFromString(value.String())
		if err != nil {
			return err
		}
		d.Decimal = parsed
		return nil
	case bsontype.Double:
		var value float64
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		d.Decimal = decimal.NewFromFloat(value)
		return nil
	case bsontype.Int32:
		var value int32
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		d.Decimal = decimal.NewFromInt32(value)
		return nil
	case bsontype.Int64:
		var value int64
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		d.Decimal = decimal.NewFromInt(value)
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return err
		}
		d.Decimal = parsed
		return nil
	default:
		return fmt.Errorf("cannot decode %s into Decimal", t)
	}
}

// MarshalJSON rounds to cents; this is the presentation boundary.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.Decimal.StringFixed(2)), nil
}

// UnmarshalJSON accepts numbers and numeric strings.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	trimmed := bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		d.Decimal = decimal.Zero
		return nil
	}
	parsed, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", string(trimmed), err)
	}
	d.Decimal = parsed
	return nil
}
