package mongodb

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Decimal128 converts a money value for storage.
func Decimal128(d decimal.Decimal) bson.Decimal128 {
	v, err := bson.ParseDecimal128(d.String())
	if err != nil {
		// decimal.String never produces an exponent, so this only fails past 34 digits.
		panic(fmt.Sprintf("mongodb: decimal %s out of Decimal128 range", d))
	}
	return v
}

// Decimal converts a stored Decimal128 back to a money value.
func Decimal(v bson.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("mongodb: decode decimal %s: %w", v.String(), err)
	}
	return d, nil
}
