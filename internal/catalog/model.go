package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockline-erp/stockline/internal/platform/httpx"
)

// Product describes catalog metadata for a sellable product. Quantity and
// cost-basis fields live in the ledger package; this view is display-only.
type Product struct {
	ID          int64
	Name        string
	SKU         string
	RetailPrice decimal.Decimal
	CreatedAt   time.Time
}

// ErrNotFound indicates record missing. It wraps the platform sentinel so
// handlers can delegate status mapping to httpx.
var ErrNotFound = fmt.Errorf("catalog: product %w", httpx.ErrNotFound)

// ErrDuplicateSKU indicates the SKU is already taken.
var ErrDuplicateSKU = fmt.Errorf("catalog: sku already exists: %w", httpx.ErrDuplicate)
