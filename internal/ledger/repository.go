package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline-erp/stockline/internal/platform/db"
)

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id int64) (Product, error)
	UpdateQuantities(ctx context.Context, product Product) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetProduct returns current ledger state without locking.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	if r == nil {
		return Product{}, errors.New("ledger repository not initialised")
	}
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, stock_quantity, quantity_in_transit, avg_purchase_price, updated_at FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.StockQuantity, &p.QuantityInTransit, &p.AvgPurchasePrice, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *txRepository) GetProductForUpdate(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.tx.QueryRow(ctx, `SELECT id, stock_quantity, quantity_in_transit, avg_purchase_price, updated_at FROM products WHERE id=$1 FOR UPDATE`, id).
		Scan(&p.ID, &p.StockQuantity, &p.QuantityInTransit, &p.AvgPurchasePrice, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *txRepository) UpdateQuantities(ctx context.Context, product Product) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET stock_quantity=$2, quantity_in_transit=$3, avg_purchase_price=$4, updated_at=NOW() WHERE id=$1`,
		product.ID, product.StockQuantity, product.QuantityInTransit, product.AvgPurchasePrice)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
