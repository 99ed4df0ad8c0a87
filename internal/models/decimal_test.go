package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type pricedDoc struct {
	Price Decimal `bson:"price" json:"price"`
}

func TestDecimalStoredAsDecimal128(t *testing.T) {
	doc := pricedDoc{Price: NewDecimal(decimal.RequireFromString("3035.125"))}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var generic bson.M
	require.NoError(t, bson.Unmarshal(raw, &generic))
	stored, ok := generic["price"].(primitive.Decimal128)
	require.True(t, ok, "expected Decimal128, got %T", generic["price"])
	assert.Equal(t, "3035.125", stored.String())

	var decoded pricedDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.True(t, decoded.Price.Equal(doc.Price.Decimal))
}

func TestDecimalDecodesLegacyNumbers(t *testing.T) {
	for name, value := range map[string]any{
		"double": 89.5,
		"int32":  int32(150),
		"int64":  int64(50),
		"string": "12.30",
	} {
		raw, err := bson.Marshal(bson.M{"price": value})
		require.NoError(t, err, name)

		var decoded pricedDoc
		require.NoError(t, bson.Unmarshal(raw, &decoded), name)
		assert.False(t, decoded.Price.IsZero(), name)
	}
}

func TestDecimalJSONRoundsToCents(t *testing.T) {
	body, err := json.Marshal(pricedDoc{Price: NewDecimal(decimal.RequireFromString("832.41675"))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":832.42}`, string(body))

	var decoded pricedDoc
	require.NoError(t, json.Unmarshal([]byte(`{"price":"19.99"}`), &decoded))
	assert.Equal(t, "19.99", decoded.Price.String())

	require.NoError(t, json.Unmarshal([]byte(`{"price":null}`), &decoded))
	assert.True(t, decoded.Price.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"price":"abc"}`), &decoded))
}
