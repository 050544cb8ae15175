package ledger

import "github.com/shopspring/decimal"

// avgPricePrecision is the settlement currency's minor-unit precision.
const avgPricePrecision = 2

// NewAvgPrice computes the weighted-average purchase price after receiving
// inQty units at inPrice on top of oldQty units carried at oldAvg.
//
// Rounding is banker's (half to even) at currency precision, applied once at
// the end so repeated receipts do not compound rounding error.
func NewAvgPrice(oldQty int64, oldAvg decimal.Decimal, inQty int64, inPrice decimal.Decimal) (decimal.Decimal, error) {
	if inQty <= 0 {
		return decimal.Zero, ErrInvalidQuantity
	}
	if inPrice.IsNegative() {
		return decimal.Zero, ErrInvalidCost
	}
	denom := oldQty + inQty
	if denom == 0 {
		return decimal.Zero, nil
	}
	oldValue := oldAvg.Mul(decimal.NewFromInt(oldQty))
	newValue := inPrice.Mul(decimal.NewFromInt(inQty))
	avg := oldValue.Add(newValue).Div(decimal.NewFromInt(denom))
	return avg.RoundBank(avgPricePrecision), nil
}
