package purchases

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stockline-erp/stockline/internal/ledger"
	"github.com/stockline-erp/stockline/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations. Product rows live in the
// same database, so order transitions can lock and mutate ledger state in
// the same transaction as the status write.
type TxRepository interface {
	CreateOrder(ctx context.Context, order PurchaseOrder) (int64, error)
	InsertItem(ctx context.Context, item PurchaseItem) (int64, error)
	GetOrderForUpdate(ctx context.Context, id int64) (PurchaseOrder, []PurchaseItem, error)
	UpdateOrderStatus(ctx context.Context, id int64, status Status) error
	UpdateOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error
	UpdateItem(ctx context.Context, item PurchaseItem) error
	SetItemCommitted(ctx context.Context, itemID int64, committed bool) error
	SetItemReceived(ctx context.Context, itemID int64) error
	GetProductForUpdate(ctx context.Context, productID int64) (ledger.Product, error)
	UpdateProductQuantities(ctx context.Context, product ledger.Product) error
	SumActiveTransit(ctx context.Context, productID int64) (int64, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const orderColumns = `id, status, supplier_name, COALESCE(supplier_contact,''), is_urgent, expenses, total_amount, COALESCE(note,''), created_at, updated_at`

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.Status, &po.SupplierName, &po.SupplierContact, &po.IsUrgent, &po.Expenses, &po.TotalAmount, &po.Note, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	return po, nil
}

// GetOrder returns purchase order and its lines.
func (r *Repository) GetOrder(ctx context.Context, id int64) (PurchaseOrder, []PurchaseItem, error) {
	po, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id=$1`, id))
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	items, err := queryItems(ctx, r.pool, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	return po, items, nil
}

// ListProductIDs returns every product id known to the ledger.
func (r *Repository) ListProductIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TransitSummary joins products with their active order lines.
func (r *Repository) TransitSummary(ctx context.Context) ([]TransitSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.stock_quantity, p.quantity_in_transit,
		       COALESCE(po.id, 0), COALESCE(pi.quantity, 0), COALESCE(po.status, '')
		FROM products p
		LEFT JOIN purchase_items pi ON pi.product_id = p.id
		LEFT JOIN purchase_orders po ON po.id = pi.purchase_order_id AND po.status = ANY($1)
		WHERE po.id IS NOT NULL OR p.quantity_in_transit > 0 OR p.stock_quantity > 0
		ORDER BY p.id, po.id`, ActiveStatuses())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []TransitSummary
	index := map[int64]int{}
	for rows.Next() {
		var (
			productID, stock, transit, orderID, qty int64
			name                                    string
			status                                  string
		)
		if err := rows.Scan(&productID, &name, &stock, &transit, &orderID, &qty, &status); err != nil {
			return nil, err
		}
		pos, ok := index[productID]
		if !ok {
			summaries = append(summaries, TransitSummary{
				ProductID:         productID,
				ProductName:       name,
				StockQuantity:     stock,
				QuantityInTransit: transit,
			})
			pos = len(summaries) - 1
			index[productID] = pos
		}
		if orderID != 0 && Status(status).IsActive() {
			summaries[pos].ActiveOrders = append(summaries[pos].ActiveOrders, ActiveOrderRef{
				OrderID:  orderID,
				Quantity: qty,
				Status:   Status(status),
			})
		}
	}
	return summaries, rows.Err()
}

func queryItems(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, orderID int64) ([]PurchaseItem, error) {
	rows, err := q.Query(ctx, `SELECT id, purchase_order_id, product_id, quantity, cost_price, total, committed, received FROM purchase_items WHERE purchase_order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PurchaseItem
	for rows.Next() {
		var item PurchaseItem
		if err := rows.Scan(&item.ID, &item.PurchaseOrderID, &item.ProductID, &item.Quantity, &item.CostPrice, &item.Total, &item.Committed, &item.Received); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *txRepo) CreateOrder(ctx context.Context, order PurchaseOrder) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO purchase_orders (status, supplier_name, supplier_contact, is_urgent, expenses, total_amount, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		order.Status, order.SupplierName, order.SupplierContact, order.IsUrgent, order.Expenses, order.TotalAmount, order.Note).Scan(&id)
	return id, err
}

func (r *txRepo) InsertItem(ctx context.Context, item PurchaseItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO purchase_items (purchase_order_id, product_id, quantity, cost_price, total, committed, received)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		item.PurchaseOrderID, item.ProductID, item.Quantity, item.CostPrice, item.Total, item.Committed, item.Received).Scan(&id)
	return id, err
}

func (r *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (PurchaseOrder, []PurchaseItem, error) {
	po, err := scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	items, err := queryItems(ctx, r.tx, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	return po, items, nil
}

func (r *txRepo) UpdateOrderStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.tx.Exec(ctx, `UPDATE purchase_orders SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepo) UpdateOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE purchase_orders SET total_amount=$2, updated_at=NOW() WHERE id=$1`, id, total)
	return err
}

func (r *txRepo) UpdateItem(ctx context.Context, item PurchaseItem) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE purchase_items SET quantity=$2, cost_price=$3, total=$4 WHERE id=$1`,
		item.ID, item.Quantity, item.CostPrice, item.Total)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *txRepo) SetItemCommitted(ctx context.Context, itemID int64, committed bool) error {
	_, err := r.tx.Exec(ctx, `UPDATE purchase_items SET committed=$2 WHERE id=$1`, itemID, committed)
	return err
}

func (r *txRepo) SetItemReceived(ctx context.Context, itemID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE purchase_items SET received=TRUE WHERE id=$1`, itemID)
	return err
}

func (r *txRepo) GetProductForUpdate(ctx context.Context, productID int64) (ledger.Product, error) {
	var p ledger.Product
	err := r.tx.QueryRow(ctx, `SELECT id, stock_quantity, quantity_in_transit, avg_purchase_price, updated_at FROM products WHERE id=$1 FOR UPDATE`, productID).
		Scan(&p.ID, &p.StockQuantity, &p.QuantityInTransit, &p.AvgPurchasePrice, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Product{}, ledger.ErrProductNotFound
		}
		return ledger.Product{}, err
	}
	return p, nil
}

func (r *txRepo) UpdateProductQuantities(ctx context.Context, product ledger.Product) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET stock_quantity=$2, quantity_in_transit=$3, avg_purchase_price=$4, updated_at=NOW() WHERE id=$1`,
		product.ID, product.StockQuantity, product.QuantityInTransit, product.AvgPurchasePrice)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrProductNotFound
	}
	return nil
}

func (r *txRepo) SumActiveTransit(ctx context.Context, productID int64) (int64, error) {
	var sum int64
	err := r.tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(pi.quantity), 0)
		FROM purchase_items pi
		JOIN purchase_orders po ON po.id = pi.purchase_order_id
		WHERE pi.product_id = $1 AND po.status = ANY($2)`, productID, ActiveStatuses()).Scan(&sum)
	return sum, err
}
