package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the per-product ledger aggregate: physical stock, units still on
// the road from suppliers, and the weighted-average purchase cost basis.
type Product struct {
	ID                int64
	StockQuantity     int64
	QuantityInTransit int64
	AvgPurchasePrice  decimal.Decimal
	UpdatedAt         time.Time
}

// ErrProductNotFound indicates a missing product row.
var ErrProductNotFound = errors.New("ledger: product not found")

// ErrInvalidQuantity indicates a zero or negative quantity.
var ErrInvalidQuantity = errors.New("ledger: quantity must be positive")

// ErrInvalidCost indicates a negative unit cost.
var ErrInvalidCost = errors.New("ledger: unit cost must be >= 0")

// ErrInvariantViolation triggered when a transit delta would drive the
// in-transit quantity negative and clamping is not permitted.
var ErrInvariantViolation = errors.New("ledger: transit quantity would become negative")

// ApplyTransitDelta adjusts QuantityInTransit by delta. When the result would
// be negative: with clamp the value is pinned at zero and the drift magnitude
// returned so the caller can log it, without clamp ErrInvariantViolation is
// returned and the aggregate is left untouched.
func (p *Product) ApplyTransitDelta(delta int64, clamp bool) (int64, error) {
	next := p.QuantityInTransit + delta
	if next < 0 {
		if !clamp {
			return 0, ErrInvariantViolation
		}
		drift := -next
		p.QuantityInTransit = 0
		return drift, nil
	}
	p.QuantityInTransit = next
	return 0, nil
}

// ApplyReceipt books qty units into stock at unitCost: transit is released
// (clamped at zero), stock grows, and the average purchase price is
// recomputed weighted by the pre-receipt stock quantity.
func (p *Product) ApplyReceipt(qty int64, unitCost decimal.Decimal) (int64, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return 0, ErrInvalidCost
	}
	newAvg, err := NewAvgPrice(p.StockQuantity, p.AvgPurchasePrice, qty, unitCost)
	if err != nil {
		return 0, err
	}
	drift, err := p.ApplyTransitDelta(-qty, true)
	if err != nil {
		return 0, err
	}
	p.StockQuantity += qty
	p.AvgPurchasePrice = newAvg
	return drift, nil
}
