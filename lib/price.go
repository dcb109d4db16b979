package lib

import "github.com/shopspring/decimal"

// Prices are numeric(6,2): four integer digits and two fractional digits.
const PriceDecimalPlaces = 2

var MaxPrice = decimal.New(999999, -PriceDecimalPlaces) // 9999.99

// CheckPrice adds a field error to ve when price is negative, above MaxPrice, or has more
// than two fractional digits.
func CheckPrice(price decimal.Decimal, field string, ve *ValidationError) {
	switch {
	case price.IsNegative():
		ve.Add(field, "must be greater than or equal to 0.00")
	case price.GreaterThan(MaxPrice):
		ve.Add(field, "must be at most "+MaxPrice.StringFixed(PriceDecimalPlaces))
	case !price.Equal(price.Round(PriceDecimalPlaces)):
		ve.Add(field, "must have at most 2 decimal places")
	}
}
