package purchases

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockline-erp/stockline/internal/catalog"
	"github.com/stockline-erp/stockline/internal/ledger"
)

// memoryRepo backs the service with maps. WithTx operates on a deep copy that
// is swapped in only when the callback succeeds, so a failing transition
// leaves no partial writes behind, mirroring the database rollback the
// service relies on.
type memoryRepo struct {
	mu       sync.Mutex
	orders   map[int64]PurchaseOrder
	items    map[int64]PurchaseItem
	products map[int64]ledger.Product
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:   map[int64]PurchaseOrder{},
		items:    map[int64]PurchaseItem{},
		products: map[int64]ledger.Product{},
	}
}

func (m *memoryRepo) seedProduct(p ledger.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *memoryRepo) product(id int64) ledger.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id]
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memoryTx{
		orders:   cloneMap(m.orders),
		items:    cloneMap(m.items),
		products: cloneMap(m.products),
		nextID:   m.nextID,
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.orders, m.items, m.products, m.nextID = tx.orders, tx.items, tx.products, tx.nextID
	return nil
}

func (m *memoryRepo) GetOrder(ctx context.Context, id int64) (PurchaseOrder, []PurchaseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return PurchaseOrder{}, nil, ErrNotFound
	}
	return order, itemsOf(m.items, id), nil
}

func (m *memoryRepo) ListProductIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memoryRepo) TransitSummary(ctx context.Context) ([]TransitSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TransitSummary, 0, len(m.products))
	for id, p := range m.products {
		out = append(out, TransitSummary{ProductID: id, StockQuantity: p.StockQuantity, QuantityInTransit: p.QuantityInTransit})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

type memoryTx struct {
	orders   map[int64]PurchaseOrder
	items    map[int64]PurchaseItem
	products map[int64]ledger.Product
	nextID   int64
}

func (t *memoryTx) CreateOrder(ctx context.Context, order PurchaseOrder) (int64, error) {
	t.nextID++
	order.ID = t.nextID
	t.orders[order.ID] = order
	return order.ID, nil
}

func (t *memoryTx) InsertItem(ctx context.Context, item PurchaseItem) (int64, error) {
	t.nextID++
	item.ID = t.nextID
	t.items[item.ID] = item
	return item.ID, nil
}

func (t *memoryTx) GetOrderForUpdate(ctx context.Context, id int64) (PurchaseOrder, []PurchaseItem, error) {
	order, ok := t.orders[id]
	if !ok {
		return PurchaseOrder{}, nil, ErrNotFound
	}
	return order, itemsOf(t.items, id), nil
}

func (t *memoryTx) UpdateOrderStatus(ctx context.Context, id int64, status Status) error {
	order, ok := t.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.Status = status
	t.orders[id] = order
	return nil
}

func (t *memoryTx) UpdateOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	order, ok := t.orders[id]
	if !ok {
		return ErrNotFound
	}
	order.TotalAmount = total
	t.orders[id] = order
	return nil
}

func (t *memoryTx) UpdateItem(ctx context.Context, item PurchaseItem) error {
	if _, ok := t.items[item.ID]; !ok {
		return ErrItemNotFound
	}
	t.items[item.ID] = item
	return nil
}

func (t *memoryTx) SetItemCommitted(ctx context.Context, itemID int64, committed bool) error {
	item, ok := t.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	item.Committed = committed
	t.items[itemID] = item
	return nil
}

func (t *memoryTx) SetItemReceived(ctx context.Context, itemID int64) error {
	item, ok := t.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	item.Received = true
	t.items[itemID] = item
	return nil
}

func (t *memoryTx) GetProductForUpdate(ctx context.Context, productID int64) (ledger.Product, error) {
	product, ok := t.products[productID]
	if !ok {
		return ledger.Product{}, ledger.ErrProductNotFound
	}
	return product, nil
}

func (t *memoryTx) UpdateProductQuantities(ctx context.Context, product ledger.Product) error {
	if _, ok := t.products[product.ID]; !ok {
		return ledger.ErrProductNotFound
	}
	t.products[product.ID] = product
	return nil
}

func (t *memoryTx) SumActiveTransit(ctx context.Context, productID int64) (int64, error) {
	var sum int64
	for _, item := range t.items {
		if item.ProductID != productID {
			continue
		}
		if t.orders[item.PurchaseOrderID].Status.IsActive() {
			sum += item.Quantity
		}
	}
	return sum, nil
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func itemsOf(items map[int64]PurchaseItem, orderID int64) []PurchaseItem {
	out := []PurchaseItem{}
	for _, item := range items {
		if item.PurchaseOrderID == orderID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type stubCatalog struct {
	products map[int64]catalog.Product
}

func (s *stubCatalog) FindProductByID(ctx context.Context, id int64) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []OrderTransitionedEvent
}

func (n *recordingNotifier) OrderTransitioned(ctx context.Context, evt OrderTransitionedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return nil
}

func newTestService(repo *memoryRepo) (*Service, *recordingNotifier) {
	cat := &stubCatalog{products: map[int64]catalog.Product{
		1: {ID: 1, Name: "Widget", SKU: "WID-1"},
		2: {ID: 2, Name: "Gadget", SKU: "GAD-2"},
	}}
	notifier := &recordingNotifier{}
	svc := NewService(repo, cat, nil, nil, notifier, nil, nil)
	return svc, notifier
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateAndReceiveLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, notifier := newTestService(repo)

	order, items, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName: "Acme",
		Items:        []OrderItemInput{{ProductID: 1, Quantity: 10, CostPrice: money("100")}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, order.Status)
	require.Len(t, items, 1)
	require.True(t, order.TotalAmount.Equal(money("1000")))
	require.Equal(t, int64(0), repo.product(1).QuantityInTransit, "draft must not touch transit")

	order, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusSent)
	require.NoError(t, err)
	require.Equal(t, StatusSent, order.Status)
	require.Equal(t, int64(10), repo.product(1).QuantityInTransit)
	require.Equal(t, int64(0), repo.product(1).StockQuantity)

	order, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusReceived)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, order.Status)

	p := repo.product(1)
	require.Equal(t, int64(0), p.QuantityInTransit)
	require.Equal(t, int64(10), p.StockQuantity)
	require.True(t, p.AvgPurchasePrice.Equal(money("100")), "got %s", p.AvgPurchasePrice)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.events, 2)
	require.Equal(t, StatusReceived, notifier.events[1].To)
}

func TestConcurrentOrderCommits(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	ids := make([]int64, 2)
	for i := range ids {
		order, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
			SupplierName: "Acme",
			Items:        []OrderItemInput{{ProductID: 1, Quantity: 5, CostPrice: money("10")}},
		})
		require.NoError(t, err)
		ids[i] = order.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(orderID int64) {
			defer wg.Done()
			_, err := svc.TransitionPurchaseOrder(ctx, orderID, StatusSent)
			require.NoError(t, err)
		}(id)
	}
	wg.Wait()

	require.Equal(t, int64(10), repo.product(1).QuantityInTransit, "both commits must survive")
}

func TestCancelReleasesTransitWithoutStock(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, StockQuantity: 3, AvgPurchasePrice: money("7.50")})
	svc, _ := newTestService(repo)

	order, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName:    "Acme",
		SendImmediately: true,
		Items:           []OrderItemInput{{ProductID: 1, Quantity: 4, CostPrice: money("12")}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusSent, order.Status)
	require.Equal(t, int64(4), repo.product(1).QuantityInTransit)

	_, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusCancelled)
	require.NoError(t, err)

	p := repo.product(1)
	require.Equal(t, int64(0), p.QuantityInTransit)
	require.Equal(t, int64(3), p.StockQuantity, "cancel must not book stock")
	require.True(t, p.AvgPurchasePrice.Equal(money("7.50")), "cancel must not reprice")
}

func TestDraftCancelSkipsLedger(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	order, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName: "Acme",
		Items:        []OrderItemInput{{ProductID: 1, Quantity: 9, CostPrice: money("1")}},
	})
	require.NoError(t, err)

	_, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusCancelled)
	require.NoError(t, err)
	require.Equal(t, int64(0), repo.product(1).QuantityInTransit)
}

func TestIllegalTransitionLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	order, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName:    "Acme",
		SendImmediately: true,
		Items:           []OrderItemInput{{ProductID: 1, Quantity: 6, CostPrice: money("2")}},
	})
	require.NoError(t, err)

	_, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusReceived)
	require.NoError(t, err)

	_, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusSent)
	require.ErrorIs(t, err, ErrIllegalTransition)

	p := repo.product(1)
	require.Equal(t, int64(6), p.StockQuantity)
	require.Equal(t, int64(0), p.QuantityInTransit)

	stored, _, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, stored.Status)

	_, err = svc.TransitionPurchaseOrder(ctx, order.ID, Status("LOST"))
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestCommitRollsBackOnUnknownProduct(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	// Product 2 exists in the catalog but has no ledger row, so committing the
	// second line fails after the first already applied inside the tx.
	order, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName: "Acme",
		Items: []OrderItemInput{
			{ProductID: 1, Quantity: 10, CostPrice: money("5")},
			{ProductID: 2, Quantity: 3, CostPrice: money("5")},
		},
	})
	require.NoError(t, err)

	_, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusSent)
	require.ErrorIs(t, err, ErrProductNotFound)

	require.Equal(t, int64(0), repo.product(1).QuantityInTransit, "partial commit must roll back")
	stored, items, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, stored.Status)
	for _, item := range items {
		require.False(t, item.Committed)
	}
}

func TestReceiveSkipsAlreadyReceivedItems(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	repo.seedProduct(ledger.Product{ID: 2, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	order, items, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName:    "Acme",
		SendImmediately: true,
		Items: []OrderItemInput{
			{ProductID: 1, Quantity: 10, CostPrice: money("4")},
			{ProductID: 2, Quantity: 5, CostPrice: money("8")},
		},
	})
	require.NoError(t, err)

	// Simulate a crash after the first line's receipt was persisted: the
	// retried transition must only apply the remaining line.
	err = repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, 1)
		if err != nil {
			return err
		}
		if _, err := product.ApplyReceipt(10, money("4")); err != nil {
			return err
		}
		if err := tx.UpdateProductQuantities(ctx, product); err != nil {
			return err
		}
		return tx.SetItemReceived(ctx, items[0].ID)
	})
	require.NoError(t, err)

	_, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusReceived)
	require.NoError(t, err)

	p1 := repo.product(1)
	require.Equal(t, int64(10), p1.StockQuantity, "retry must not double-receive")
	require.Equal(t, int64(0), p1.QuantityInTransit)
	p2 := repo.product(2)
	require.Equal(t, int64(5), p2.StockQuantity)
	require.Equal(t, int64(0), p2.QuantityInTransit)
}

func TestReceiveClampsDriftedTransit(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	order, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName:    "Acme",
		SendImmediately: true,
		Items:           []OrderItemInput{{ProductID: 1, Quantity: 10, CostPrice: money("3")}},
	})
	require.NoError(t, err)

	// Inject drift: something else already drained the transit count.
	err = repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, 1)
		if err != nil {
			return err
		}
		product.QuantityInTransit = 4
		return tx.UpdateProductQuantities(ctx, product)
	})
	require.NoError(t, err)

	_, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusReceived)
	require.NoError(t, err, "drift must not block a receipt")

	p := repo.product(1)
	require.Equal(t, int64(10), p.StockQuantity, "full delivered quantity is booked")
	require.Equal(t, int64(0), p.QuantityInTransit, "transit clamps at zero")
}

func TestCreateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	_, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{SupplierName: "Acme"})
	require.ErrorIs(t, err, ErrValidation)

	_, _, err = svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName: "Acme",
		Items:        []OrderItemInput{{ProductID: 1, Quantity: 0, CostPrice: money("1")}},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, err = svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName: "Acme",
		Items:        []OrderItemInput{{ProductID: 1, Quantity: 1, CostPrice: money("-1")}},
	})
	require.ErrorIs(t, err, ErrInvalidCost)

	_, _, err = svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName: "Acme",
		Items:        []OrderItemInput{{ProductID: 99, Quantity: 1, CostPrice: money("1")}},
	})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateItemAdjustsTransit(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	order, items, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName:    "Acme",
		SendImmediately: true,
		Items:           []OrderItemInput{{ProductID: 1, Quantity: 10, CostPrice: money("2")}},
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), repo.product(1).QuantityInTransit)

	updated, err := svc.UpdateItem(ctx, order.ID, items[0].ID, 15, money("2.50"))
	require.NoError(t, err)
	require.Equal(t, int64(15), updated.Quantity)
	require.True(t, updated.Total.Equal(money("37.50")))
	require.Equal(t, int64(15), repo.product(1).QuantityInTransit, "growth applies the difference")

	_, err = svc.UpdateItem(ctx, order.ID, items[0].ID, 8, money("2.50"))
	require.NoError(t, err)
	require.Equal(t, int64(8), repo.product(1).QuantityInTransit, "shrink applies the difference")

	stored, _, err := repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, stored.TotalAmount.Equal(money("20.00")), "got %s", stored.TotalAmount)
}

func TestUpdateItemOnDraftSkipsLedger(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	order, items, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName: "Acme",
		Items:        []OrderItemInput{{ProductID: 1, Quantity: 10, CostPrice: money("2")}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, order.ID, items[0].ID, 20, money("2"))
	require.NoError(t, err)
	require.Equal(t, int64(0), repo.product(1).QuantityInTransit)
}

func TestUpdateItemRejectsTerminalOrder(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	order, items, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName:    "Acme",
		SendImmediately: true,
		Items:           []OrderItemInput{{ProductID: 1, Quantity: 2, CostPrice: money("5")}},
	})
	require.NoError(t, err)
	_, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusReceived)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, order.ID, items[0].ID, 5, money("5"))
	require.ErrorIs(t, err, ErrOrderImmutable)

	_, err = svc.UpdateItem(ctx, order.ID, items[0].ID, 0, money("5"))
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.UpdateItem(ctx, order.ID, 424242, 5, money("5"))
	require.ErrorIs(t, err, ErrOrderImmutable)
}

func TestUpdateItemUnknownItem(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	order, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName: "Acme",
		Items:        []OrderItemInput{{ProductID: 1, Quantity: 2, CostPrice: money("5")}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, order.ID, 424242, 5, money("5"))
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestSyncCorrectsDriftOnce(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	repo.seedProduct(ledger.Product{ID: 2, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	_, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName:    "Acme",
		SendImmediately: true,
		Items: []OrderItemInput{
			{ProductID: 1, Quantity: 10, CostPrice: money("1")},
			{ProductID: 2, Quantity: 4, CostPrice: money("1")},
		},
	})
	require.NoError(t, err)

	// Corrupt one stored counter.
	err = repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, 1)
		if err != nil {
			return err
		}
		product.QuantityInTransit = 99
		return tx.UpdateProductQuantities(ctx, product)
	})
	require.NoError(t, err)

	report, err := svc.SyncTransitQuantities(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Corrected)
	require.Equal(t, int64(10), repo.product(1).QuantityInTransit)
	require.Equal(t, int64(4), repo.product(2).QuantityInTransit)

	report, err = svc.SyncTransitQuantities(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, report.Corrected, "second run must be a no-op")
}

func TestSyncIgnoresTerminalOrders(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	order, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
		SupplierName:    "Acme",
		SendImmediately: true,
		Items:           []OrderItemInput{{ProductID: 1, Quantity: 7, CostPrice: money("1")}},
	})
	require.NoError(t, err)
	_, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusCancelled)
	require.NoError(t, err)

	report, err := svc.SyncTransitQuantities(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, report.Corrected)
	require.Equal(t, int64(0), repo.product(1).QuantityInTransit)
}

func TestGetOrderNotFound(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo)

	_, _, err := svc.GetOrder(context.Background(), 77)
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.TransitionPurchaseOrder(context.Background(), 77, StatusSent)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestWeightedAverageAcrossTwoOrders(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	repo.seedProduct(ledger.Product{ID: 1, AvgPurchasePrice: decimal.Zero})
	svc, _ := newTestService(repo)

	for _, line := range []struct {
		qty  int64
		cost string
	}{{10, "5"}, {10, "7"}} {
		order, _, err := svc.CreatePurchaseOrder(ctx, CreateOrderInput{
			SupplierName:    "Acme",
			SendImmediately: true,
			Items:           []OrderItemInput{{ProductID: 1, Quantity: line.qty, CostPrice: money(line.cost)}},
		})
		require.NoError(t, err)
		_, err = svc.TransitionPurchaseOrder(ctx, order.ID, StatusReceived)
		require.NoError(t, err)
	}

	p := repo.product(1)
	require.Equal(t, int64(20), p.StockQuantity)
	require.True(t, p.AvgPurchasePrice.Equal(money("6")), "got %s", p.AvgPurchasePrice)
}
