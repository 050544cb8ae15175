package purchases

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the purchase order lifecycle state.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusSent            Status = "SENT"
	StatusSupplierEditing Status = "SUPPLIER_EDITING"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPaid            Status = "PAID"
	StatusShipped         Status = "SHIPPED"
	StatusReceived        Status = "RECEIVED"
	StatusCancelled       Status = "CANCELLED"
)

// statusTransitions is the closed transition table; illegal moves are a
// single guarded check instead of scattered conditionals. Every active
// status may jump straight to RECEIVED because goods can arrive before the
// paperwork catches up, and CANCELLED is reachable from every non-terminal
// state.
var statusTransitions = map[Status][]Status{
	StatusDraft:           {StatusSent, StatusCancelled},
	StatusSent:            {StatusSupplierEditing, StatusAwaitingPayment, StatusReceived, StatusCancelled},
	StatusSupplierEditing: {StatusSent, StatusReceived, StatusCancelled},
	StatusAwaitingPayment: {StatusPaid, StatusReceived, StatusCancelled},
	StatusPaid:            {StatusShipped, StatusReceived, StatusCancelled},
	StatusShipped:         {StatusReceived, StatusCancelled},
	StatusReceived:        {},
	StatusCancelled:       {},
}

// CanTransitionTo reports whether the target status is reachable in one step.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range statusTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsActive reports whether orders in this status contribute to transit
// quantities: after creation, before a terminal outcome.
func (s Status) IsActive() bool {
	switch s {
	case StatusSent, StatusSupplierEditing, StatusAwaitingPayment, StatusPaid, StatusShipped:
		return true
	}
	return false
}

// IsTerminal reports whether the order became immutable.
func (s Status) IsTerminal() bool {
	return s == StatusReceived || s == StatusCancelled
}

// IsValid reports whether the status belongs to the closed set.
func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// ActiveStatuses lists the statuses counted by transit reconciliation.
func ActiveStatuses() []string {
	return []string{
		string(StatusSent),
		string(StatusSupplierEditing),
		string(StatusAwaitingPayment),
		string(StatusPaid),
		string(StatusShipped),
	}
}

// PurchaseOrder is the aggregate root for a supplier purchase.
type PurchaseOrder struct {
	ID              int64
	Status          Status
	SupplierName    string
	SupplierContact string
	IsUrgent        bool
	Expenses        decimal.Decimal
	TotalAmount     decimal.Decimal
	Note            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PurchaseItem is one order line. Committed and Received are idempotency
// guards: a retried transition skips items whose ledger effect already
// applied.
type PurchaseItem struct {
	ID              int64
	PurchaseOrderID int64
	ProductID       int64
	Quantity        int64
	CostPrice       decimal.Decimal
	Total           decimal.Decimal
	Committed       bool
	Received        bool
}

// Recalc keeps Total consistent with Quantity * CostPrice.
func (i *PurchaseItem) Recalc() {
	i.Total = i.CostPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// TransitSummary reports a product's ledger position and the active orders
// contributing to it.
type TransitSummary struct {
	ProductID         int64            `json:"productId"`
	ProductName       string           `json:"productName"`
	StockQuantity     int64            `json:"stockQuantity"`
	QuantityInTransit int64            `json:"quantityInTransit"`
	ActiveOrders      []ActiveOrderRef `json:"activeOrders"`
}

// ActiveOrderRef identifies one active order's contribution.
type ActiveOrderRef struct {
	OrderID  int64  `json:"orderId"`
	Quantity int64  `json:"quantity"`
	Status   Status `json:"status"`
}

// SyncReport summarises a reconciliation run.
type SyncReport struct {
	Corrected int `json:"corrected"`
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("purchases: order not found")
	// ErrItemNotFound indicates the line item does not belong to the order.
	ErrItemNotFound = errors.New("purchases: item not found")
	// ErrProductNotFound indicates an unknown product reference.
	ErrProductNotFound = errors.New("purchases: product not found")
	// ErrIllegalTransition occurs when the requested status is not reachable.
	ErrIllegalTransition = errors.New("purchases: illegal status transition")
	// ErrOrderImmutable occurs when editing a terminal order.
	ErrOrderImmutable = errors.New("purchases: order is terminal and immutable")
	// ErrInvalidQuantity indicates a zero or negative quantity.
	ErrInvalidQuantity = errors.New("purchases: quantity must be positive")
	// ErrInvalidCost indicates a negative cost price.
	ErrInvalidCost = errors.New("purchases: cost price must be >= 0")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("purchases: invalid input")
)
