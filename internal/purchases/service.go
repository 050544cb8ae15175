package purchases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/stockline-erp/stockline/internal/catalog"
	"github.com/stockline-erp/stockline/internal/ledger"
	"github.com/stockline-erp/stockline/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (PurchaseOrder, []PurchaseItem, error)
	ListProductIDs(ctx context.Context) ([]int64, error)
	TransitSummary(ctx context.Context) ([]TransitSummary, error)
}

// CatalogPort resolves product metadata for validation and display.
type CatalogPort interface {
	FindProductByID(ctx context.Context, id int64) (catalog.Product, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier is invoked after a successful transition. Delivery failures never
// gate the transition's success.
type Notifier interface {
	OrderTransitioned(ctx context.Context, evt OrderTransitionedEvent) error
}

// Service orchestrates the purchase order lifecycle and its ledger effects.
type Service struct {
	repo        RepositoryPort
	catalog     CatalogPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	notifier    Notifier
	summaries   *SummaryCache
	logger      *slog.Logger
}

// NewService constructs purchases service.
func NewService(repo RepositoryPort, catalogPort CatalogPort, audit AuditPort, idem *shared.IdempotencyStore, notifier Notifier, summaries *SummaryCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, catalog: catalogPort, audit: audit, idempotency: idem, notifier: notifier, summaries: summaries, logger: logger}
}

// CreateOrderInput describes creation payload.
type CreateOrderInput struct {
	SupplierName    string
	SupplierContact string
	Note            string
	IsUrgent        bool
	Expenses        decimal.Decimal
	// SendImmediately commits the order to transit in the same transaction
	// instead of leaving it in draft.
	SendImmediately bool
	Items           []OrderItemInput
}

// OrderItemInput describes one requested line.
type OrderItemInput struct {
	ProductID int64
	Quantity  int64
	CostPrice decimal.Decimal
}

// CreatePurchaseOrder persists order header and lines. Totals are always
// computed server-side from quantity * cost price; caller-supplied totals are
// never trusted.
func (s *Service) CreatePurchaseOrder(ctx context.Context, input CreateOrderInput) (PurchaseOrder, []PurchaseItem, error) {
	if len(input.Items) == 0 {
		return PurchaseOrder{}, nil, fmt.Errorf("%w: minimal 1 item", ErrValidation)
	}
	if input.Expenses.IsNegative() {
		return PurchaseOrder{}, nil, ErrInvalidCost
	}
	items := make([]PurchaseItem, 0, len(input.Items))
	total := decimal.Zero
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return PurchaseOrder{}, nil, ErrInvalidQuantity
		}
		if line.CostPrice.IsNegative() {
			return PurchaseOrder{}, nil, ErrInvalidCost
		}
		if _, err := s.catalog.FindProductByID(ctx, line.ProductID); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return PurchaseOrder{}, nil, fmt.Errorf("%w: product %d", ErrProductNotFound, line.ProductID)
			}
			return PurchaseOrder{}, nil, err
		}
		item := PurchaseItem{ProductID: line.ProductID, Quantity: line.Quantity, CostPrice: line.CostPrice}
		item.Recalc()
		total = total.Add(item.Total)
		items = append(items, item)
	}

	order := PurchaseOrder{
		Status:          StatusDraft,
		SupplierName:    input.SupplierName,
		SupplierContact: input.SupplierContact,
		IsUrgent:        input.IsUrgent,
		Expenses:        input.Expenses,
		TotalAmount:     total,
		Note:            input.Note,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		orderID, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = orderID
		for i := range items {
			items[i].PurchaseOrderID = orderID
			itemID, err := tx.InsertItem(ctx, items[i])
			if err != nil {
				return err
			}
			items[i].ID = itemID
		}
		if input.SendImmediately {
			if err := s.commitItems(ctx, tx, order.ID, items); err != nil {
				return err
			}
			if err := tx.UpdateOrderStatus(ctx, orderID, StatusSent); err != nil {
				return err
			}
			order.Status = StatusSent
		}
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, nil, err
	}

	s.recordAudit(ctx, "PO_CREATE", order.ID, map[string]any{"status": order.Status, "total": order.TotalAmount.String()})
	if order.Status == StatusSent {
		s.afterLedgerEffect(ctx)
		s.notify(ctx, transitionEvent(order, StatusDraft, StatusSent))
	}
	return order, items, nil
}

// GetOrder returns order header and lines.
func (s *Service) GetOrder(ctx context.Context, id int64) (PurchaseOrder, []PurchaseItem, error) {
	return s.repo.GetOrder(ctx, id)
}

// TransitionPurchaseOrder moves the order to the target status and applies
// the matching ledger effect. Illegal transitions fail without side effects;
// the whole effect runs in one transaction so it is all-or-nothing across
// items.
func (s *Service) TransitionPurchaseOrder(ctx context.Context, orderID int64, target Status) (PurchaseOrder, error) {
	if !target.IsValid() {
		return PurchaseOrder{}, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, target)
	}

	key := ""
	inserted := false
	if target == StatusReceived && s.idempotency != nil {
		key = fmt.Sprintf("PO:RECEIVE:%d", orderID)
		if err := s.idempotency.CheckAndInsert(ctx, key, "purchases.receive"); err != nil {
			return PurchaseOrder{}, err
		}
		inserted = true
	}

	var (
		order        PurchaseOrder
		from         Status
		touchesStock bool
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var items []PurchaseItem
		var err error
		order, items, err = tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if !from.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, target)
		}

		switch {
		case from == StatusDraft && target == StatusSent:
			touchesStock = true
			if err := s.commitItems(ctx, tx, orderID, items); err != nil {
				return err
			}
		case target == StatusReceived:
			touchesStock = true
			if err := s.receiveItems(ctx, tx, orderID, items); err != nil {
				return err
			}
		case target == StatusCancelled && from != StatusDraft:
			touchesStock = true
			if err := s.cancelItems(ctx, tx, orderID, items); err != nil {
				return err
			}
		}
		// Draft cancellation and the remaining administrative moves only
		// rewrite the status.
		if err := tx.UpdateOrderStatus(ctx, orderID, target); err != nil {
			return err
		}
		order.Status = target
		return nil
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		return PurchaseOrder{}, err
	}

	s.recordAudit(ctx, "PO_TRANSITION", orderID, map[string]any{"from": from, "to": target})
	if touchesStock {
		s.afterLedgerEffect(ctx)
	}
	s.notify(ctx, transitionEvent(order, from, target))
	return order, nil
}

// UpdateItem edits a line's quantity or cost while keeping totals and the
// transit ledger consistent. While the order is active, the difference
// between old and new quantity is applied to the product's transit count in
// the same transaction, so Invariant repair never has to wait for the sync
// run. Terminal orders are immutable.
func (s *Service) UpdateItem(ctx context.Context, orderID, itemID, quantity int64, costPrice decimal.Decimal) (PurchaseItem, error) {
	if quantity <= 0 {
		return PurchaseItem{}, ErrInvalidQuantity
	}
	if costPrice.IsNegative() {
		return PurchaseItem{}, ErrInvalidCost
	}
	var updated PurchaseItem
	var touched bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, items, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return ErrOrderImmutable
		}
		idx := -1
		for i := range items {
			if items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrItemNotFound
		}
		item := items[idx]

		delta := quantity - item.Quantity
		if order.Status.IsActive() && item.Committed && delta != 0 {
			product, err := tx.GetProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return err
			}
			// Growing the line must never rely on clamping; shrinking may
			// clamp so an edit cannot be blocked by pre-existing drift.
			drift, err := product.ApplyTransitDelta(delta, delta < 0)
			if err != nil {
				return err
			}
			if drift > 0 {
				s.logger.Warn("transit quantity clamped at zero",
					slog.Int64("product_id", item.ProductID),
					slog.Int64("drift", drift),
					slog.String("ref", fmt.Sprintf("PO:%d:ITEM:%d", orderID, itemID)))
			}
			if err := tx.UpdateProductQuantities(ctx, product); err != nil {
				return err
			}
			touched = true
		}

		item.Quantity = quantity
		item.CostPrice = costPrice
		item.Recalc()
		if err := tx.UpdateItem(ctx, item); err != nil {
			return err
		}
		items[idx] = item

		total := decimal.Zero
		for _, it := range items {
			total = total.Add(it.Total)
		}
		if err := tx.UpdateOrderTotal(ctx, orderID, total); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return PurchaseItem{}, err
	}
	s.recordAudit(ctx, "PO_ITEM_UPDATE", orderID, map[string]any{"item_id": itemID, "qty": quantity, "cost": costPrice.String()})
	if touched {
		s.afterLedgerEffect(ctx)
	}
	return updated, nil
}

// GetTransitSummary reports every product's stock/transit position together
// with the active orders feeding it. Served from cache when available.
func (s *Service) GetTransitSummary(ctx context.Context) ([]TransitSummary, error) {
	if s.summaries == nil {
		return s.repo.TransitSummary(ctx)
	}
	return s.summaries.Fetch(ctx, s.repo.TransitSummary)
}

// SyncTransitQuantities recomputes each product's in-transit quantity from
// the authoritative set of active orders and overwrites stored values that
// drifted. Idempotent: a second run right after is a no-op.
func (s *Service) SyncTransitQuantities(ctx context.Context) (SyncReport, error) {
	ids, err := s.repo.ListProductIDs(ctx)
	if err != nil {
		return SyncReport{}, err
	}
	report := SyncReport{}
	for _, productID := range ids {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			product, err := tx.GetProductForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			actual, err := tx.SumActiveTransit(ctx, productID)
			if err != nil {
				return err
			}
			if actual == product.QuantityInTransit {
				return nil
			}
			s.logger.Info("correcting transit drift",
				slog.Int64("product_id", productID),
				slog.Int64("stored", product.QuantityInTransit),
				slog.Int64("actual", actual))
			product.QuantityInTransit = actual
			if err := tx.UpdateProductQuantities(ctx, product); err != nil {
				return err
			}
			report.Corrected++
			return nil
		})
		if err != nil {
			return report, err
		}
	}
	if report.Corrected > 0 {
		s.afterLedgerEffect(ctx)
	}
	s.recordAudit(ctx, "PO_TRANSIT_SYNC", 0, map[string]any{"corrected": report.Corrected})
	return report, nil
}

// commitItems applies +quantity transit per uncommitted line. Commits never
// clamp: a failure aborts the whole transaction and the order stays draft.
func (s *Service) commitItems(ctx context.Context, tx TxRepository, orderID int64, items []PurchaseItem) error {
	for i := range items {
		item := &items[i]
		if item.Committed {
			continue
		}
		product, err := tx.GetProductForUpdate(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, ledger.ErrProductNotFound) {
				return fmt.Errorf("%w: product %d", ErrProductNotFound, item.ProductID)
			}
			return err
		}
		if _, err := product.ApplyTransitDelta(item.Quantity, false); err != nil {
			return err
		}
		if err := tx.UpdateProductQuantities(ctx, product); err != nil {
			return err
		}
		if err := tx.SetItemCommitted(ctx, item.ID, true); err != nil {
			return err
		}
		item.Committed = true
	}
	return nil
}

// receiveItems releases transit and books stock per unreceived line. Transit
// underruns are clamped and logged rather than blocking the receipt.
func (s *Service) receiveItems(ctx context.Context, tx TxRepository, orderID int64, items []PurchaseItem) error {
	for i := range items {
		item := &items[i]
		if item.Received {
			continue
		}
		product, err := tx.GetProductForUpdate(ctx, item.ProductID)
		if err != nil {
			return err
		}
		drift, err := product.ApplyReceipt(item.Quantity, item.CostPrice)
		if err != nil {
			return err
		}
		if drift > 0 {
			s.logger.Warn("transit quantity clamped at zero",
				slog.Int64("product_id", item.ProductID),
				slog.Int64("drift", drift),
				slog.String("ref", fmt.Sprintf("PO:%d", orderID)))
		}
		if err := tx.UpdateProductQuantities(ctx, product); err != nil {
			return err
		}
		if err := tx.SetItemReceived(ctx, item.ID); err != nil {
			return err
		}
		item.Received = true
	}
	return nil
}

// cancelItems releases transit per committed line without touching stock.
func (s *Service) cancelItems(ctx context.Context, tx TxRepository, orderID int64, items []PurchaseItem) error {
	for i := range items {
		item := &items[i]
		if !item.Committed || item.Received {
			continue
		}
		product, err := tx.GetProductForUpdate(ctx, item.ProductID)
		if err != nil {
			return err
		}
		drift, err := product.ApplyTransitDelta(-item.Quantity, true)
		if err != nil {
			return err
		}
		if drift > 0 {
			s.logger.Warn("transit quantity clamped at zero",
				slog.Int64("product_id", item.ProductID),
				slog.Int64("drift", drift),
				slog.String("ref", fmt.Sprintf("PO:%d", orderID)))
		}
		if err := tx.UpdateProductQuantities(ctx, product); err != nil {
			return err
		}
		if err := tx.SetItemCommitted(ctx, item.ID, false); err != nil {
			return err
		}
		item.Committed = false
	}
	return nil
}

func (s *Service) afterLedgerEffect(ctx context.Context) {
	if s.summaries != nil {
		s.summaries.Invalidate(ctx)
	}
}

func transitionEvent(order PurchaseOrder, from, to Status) OrderTransitionedEvent {
	return OrderTransitionedEvent{
		EventID:     EventRef(order.ID, from, to).String(),
		OrderID:     order.ID,
		From:        from,
		To:          to,
		TotalAmount: order.TotalAmount.String(),
		IsUrgent:    order.IsUrgent,
	}
}

func (s *Service) notify(ctx context.Context, evt OrderTransitionedEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.OrderTransitioned(ctx, evt); err != nil {
		s.logger.Warn("order notification failed", slog.Int64("order_id", evt.OrderID), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: 0, Action: action, Entity: "purchases", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
