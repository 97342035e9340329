package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	items          map[int64]Item
	movements      []Movement
	nextItemID     int64
	nextMovementID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Item)}
}

func (r *memoryRepo) seedItem(item Item) int64 {
	r.nextItemID++
	item.ID = r.nextItemID
	r.items[item.ID] = item
	return item.ID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshotItems := make(map[int64]Item, len(r.items))
	for k, v := range r.items {
		snapshotItems[k] = v
	}
	snapshotMovements := append([]Movement(nil), r.movements...)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.items = snapshotItems
		r.movements = snapshotMovements
		return err
	}
	return nil
}

func (r *memoryRepo) GetItem(ctx context.Context, id int64) (Item, error) {
	item, ok := r.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

func (r *memoryRepo) ListItems(ctx context.Context) ([]Item, error) {
	items := make([]Item, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	return items, nil
}

func (r *memoryRepo) FindLowStock(ctx context.Context) ([]Item, error) {
	low := []Item{}
	for _, item := range r.items {
		if item.ProductName != "" && item.Qty <= item.ReorderPoint {
			low = append(low, item)
		}
	}
	return low, nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, productID *int64, limit int) ([]MovementView, error) {
	views := []MovementView{}
	for _, m := range r.movements {
		if productID != nil && m.ProductID != *productID {
			continue
		}
		views = append(views, MovementView{Movement: m})
	}
	return views, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) GetItemForUpdate(ctx context.Context, productID int64) (Item, error) {
	return tx.repo.GetItem(ctx, productID)
}

func (tx *memoryTx) GetItemByNameForUpdate(ctx context.Context, productName string) (Item, error) {
	for _, item := range tx.repo.items {
		if item.ProductName == productName {
			return item, nil
		}
	}
	return Item{}, ErrItemNotFound
}

func (tx *memoryTx) UpdateItemQty(ctx context.Context, productID int64, qty int) error {
	item, ok := tx.repo.items[productID]
	if !ok {
		return ErrItemNotFound
	}
	item.Qty = qty
	tx.repo.items[productID] = item
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	tx.repo.nextMovementID++
	m.ID = tx.repo.nextMovementID
	tx.repo.movements = append(tx.repo.movements, m)
	return m.ID, nil
}

func (tx *memoryTx) CreateItem(ctx context.Context, input ItemInput) (int64, error) {
	item := itemFromInput(0, input)
	item.Qty = 0
	return tx.repo.seedItem(item), nil
}

func (tx *memoryTx) UpdateItemInfo(ctx context.Context, id int64, input ItemInput) error {
	item, ok := tx.repo.items[id]
	if !ok {
		return ErrItemNotFound
	}
	qty := item.Qty
	item = itemFromInput(id, input)
	item.Qty = qty
	tx.repo.items[id] = item
	return nil
}

func (tx *memoryTx) DeleteItem(ctx context.Context, id int64) error {
	if _, ok := tx.repo.items[id]; !ok {
		return ErrItemNotFound
	}
	delete(tx.repo.items, id)
	return nil
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, NewEngine(EngineConfig{}, nil), nil, nil)
}

func TestCreateItemPostsInitialMovement(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, ItemInput{ProductName: "Bearing 6204", Qty: 25, UnitCost: 4.5}, 7)
	require.NoError(t, err)
	require.Equal(t, 25, item.Qty)

	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	require.Equal(t, MovementIn, m.Type)
	require.Equal(t, 25, m.Quantity)
	require.Equal(t, RefInitial, m.Reference)
	require.Equal(t, int64(7), m.PerformedBy)
}

func TestCreateItemRequiresName(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.CreateItem(context.Background(), ItemInput{ProductName: "   ", Qty: 5}, 1)
	require.ErrorIs(t, err, ErrNameRequired)
	require.Empty(t, repo.items)
}

func TestUpdateItemQtyChangePostsAdjustment(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, ItemInput{ProductName: "Filter", Qty: 10}, 1)
	require.NoError(t, err)

	updated, err := svc.UpdateItem(ctx, created.ID, ItemInput{ProductName: "Filter", Qty: 4}, 1)
	require.NoError(t, err)
	require.Equal(t, 4, updated.Qty)

	require.Len(t, repo.movements, 2)
	adj := repo.movements[1]
	require.Equal(t, MovementOut, adj.Type)
	require.Equal(t, 6, adj.Quantity)
	require.Equal(t, RefAdjustment, adj.Reference)
}

func TestUpdateItemWithoutQtyChangeAddsNoMovement(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.CreateItem(ctx, ItemInput{ProductName: "Filter", Qty: 10}, 1)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, created.ID, ItemInput{ProductName: "Filter (HEPA)", Qty: 10}, 1)
	require.NoError(t, err)
	require.Len(t, repo.movements, 1)
	require.Equal(t, "Filter (HEPA)", repo.items[created.ID].ProductName)
}

func TestFindLowStockIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	repo.seedItem(Item{ProductName: "Gasket", Qty: 3, ReorderPoint: 5})
	repo.seedItem(Item{ProductName: "Shaft", Qty: 40, ReorderPoint: 5})
	repo.seedItem(Item{ProductName: "", Qty: 0, ReorderPoint: 5})

	first, err := svc.FindLowStock(ctx)
	require.NoError(t, err)
	second, err := svc.FindLowStock(ctx)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, first, 1)
	require.Equal(t, "Gasket", first[0].ProductName)
}

func TestDeleteItem(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	id := repo.seedItem(Item{ProductName: "Relay", Qty: 1})
	require.NoError(t, svc.DeleteItem(ctx, id, 1))
	require.Empty(t, repo.items)

	require.ErrorIs(t, svc.DeleteItem(ctx, id, 1), ErrItemNotFound)
}
