package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/stockline-erp/stockline/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, id int64) (Product, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates product ledger mutations. All mutations run under a
// per-product row lock so concurrent purchase orders never lose an update.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger}
}

// GetProduct returns ledger state for a product.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// TransitDelta describes a single in-transit adjustment.
type TransitDelta struct {
	ProductID int64
	Delta     int64
	// Clamp pins a would-be-negative result at zero instead of failing.
	// Commits never clamp; cancel/receive paths do, so a terminal
	// transition is never blocked by bookkeeping drift.
	Clamp bool
	Ref   string
}

// ApplyTransitDelta atomically adds the delta to the product's in-transit
// quantity under a row lock.
func (s *Service) ApplyTransitDelta(ctx context.Context, input TransitDelta) error {
	if input.Delta == 0 {
		return ErrInvalidQuantity
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		drift, err := product.ApplyTransitDelta(input.Delta, input.Clamp)
		if err != nil {
			return err
		}
		if drift > 0 {
			s.warnDrift(input.ProductID, drift, input.Ref)
		}
		return tx.UpdateQuantities(ctx, product)
	})
}

// ReceiveInput describes a receipt of purchased units into stock.
type ReceiveInput struct {
	ProductID int64
	Quantity  int64
	UnitCost  decimal.Decimal
	Ref       string
}

// Receive moves quantity from transit into stock and recomputes the average
// purchase price, all in one transaction.
func (s *Service) Receive(ctx context.Context, input ReceiveInput) error {
	if input.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if input.UnitCost.IsNegative() {
		return ErrInvalidCost
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		drift, err := product.ApplyReceipt(input.Quantity, input.UnitCost)
		if err != nil {
			return err
		}
		if drift > 0 {
			s.warnDrift(input.ProductID, drift, input.Ref)
		}
		return tx.UpdateQuantities(ctx, product)
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "ledger:receive",
			Entity:   "product",
			EntityID: fmt.Sprintf("%d", input.ProductID),
			Meta: map[string]any{
				"qty":       input.Quantity,
				"unit_cost": input.UnitCost.String(),
				"ref":       input.Ref,
			},
		})
	}
	return nil
}

func (s *Service) warnDrift(productID, drift int64, ref string) {
	s.logger.Warn("transit quantity clamped at zero",
		slog.Int64("product_id", productID),
		slog.Int64("drift", drift),
		slog.String("ref", ref))
}
