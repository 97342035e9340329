package maintenance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plantops/plantops/internal/inventory"
)

type memoryRepo struct {
	logs           map[int64]Log
	items          map[int64]inventory.Item
	movements      []inventory.Movement
	nextLogID      int64
	nextMovementID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{logs: make(map[int64]Log), items: make(map[int64]inventory.Item)}
}

func (r *memoryRepo) seedItem(item inventory.Item) int64 {
	id := int64(len(r.items) + 1)
	item.ID = id
	r.items[id] = item
	return id
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapLogs := make(map[int64]Log, len(r.logs))
	for k, v := range r.logs {
		snapLogs[k] = v
	}
	snapItems := make(map[int64]inventory.Item, len(r.items))
	for k, v := range r.items {
		snapItems[k] = v
	}
	snapMovements := append([]inventory.Movement(nil), r.movements...)
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.logs = snapLogs
		r.items = snapItems
		r.movements = snapMovements
		return err
	}
	return nil
}

func (r *memoryRepo) GetLog(ctx context.Context, id int64) (Log, error) {
	log, ok := r.logs[id]
	if !ok {
		return Log{}, ErrLogNotFound
	}
	return log, nil
}

func (r *memoryRepo) ListLogs(ctx context.Context, limit int) ([]Log, error) {
	logs := []Log{}
	for _, log := range r.logs {
		logs = append(logs, log)
	}
	return logs, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (tx *memoryTx) InsertLog(ctx context.Context, log Log) (int64, error) {
	tx.repo.nextLogID++
	log.ID = tx.repo.nextLogID
	tx.repo.logs[log.ID] = log
	return log.ID, nil
}

func (tx *memoryTx) UpdateLog(ctx context.Context, id int64, log Log) error {
	if _, ok := tx.repo.logs[id]; !ok {
		return ErrLogNotFound
	}
	log.ID = id
	tx.repo.logs[id] = log
	return nil
}

func (tx *memoryTx) DeleteLog(ctx context.Context, id int64) error {
	if _, ok := tx.repo.logs[id]; !ok {
		return ErrLogNotFound
	}
	delete(tx.repo.logs, id)
	return nil
}

func (tx *memoryTx) GetLogForUpdate(ctx context.Context, id int64) (Log, error) {
	return tx.repo.GetLog(ctx, id)
}

func (tx *memoryTx) Inventory() inventory.TxStore {
	return &memoryStore{repo: tx.repo}
}

type memoryStore struct {
	repo *memoryRepo
}

func (s *memoryStore) GetItemForUpdate(ctx context.Context, productID int64) (inventory.Item, error) {
	item, ok := s.repo.items[productID]
	if !ok {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	return item, nil
}

func (s *memoryStore) GetItemByNameForUpdate(ctx context.Context, productName string) (inventory.Item, error) {
	for _, item := range s.repo.items {
		if item.ProductName == productName {
			return item, nil
		}
	}
	return inventory.Item{}, inventory.ErrItemNotFound
}

func (s *memoryStore) UpdateItemQty(ctx context.Context, productID int64, qty int) error {
	item, ok := s.repo.items[productID]
	if !ok {
		return inventory.ErrItemNotFound
	}
	item.Qty = qty
	s.repo.items[productID] = item
	return nil
}

func (s *memoryStore) InsertMovement(ctx context.Context, m inventory.Movement) (int64, error) {
	s.repo.nextMovementID++
	m.ID = s.repo.nextMovementID
	s.repo.movements = append(s.repo.movements, m)
	return m.ID, nil
}

func newTestService(repo *memoryRepo, policy EditPolicy) *Service {
	engine := inventory.NewEngine(inventory.EngineConfig{}, nil)
	return NewService(repo, engine, nil, nil, ServiceConfig{EditPolicy: policy})
}

func TestCreateReplacedDeductsStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, EditPolicyForbid)
	ctx := context.Background()

	partID := repo.seedItem(inventory.Item{ProductName: "Drive Belt", Qty: 8})

	result, err := svc.Create(ctx, LogInput{
		Engineer:      "A. Santos",
		Action:        ActionReplaced,
		Component:     "Conveyor 3",
		SparePartUsed: "Drive Belt : (8)",
		Quantity:      2,
	}, 5)
	require.NoError(t, err)
	require.NotNil(t, result.UpdatedStock)
	require.Equal(t, 6, *result.UpdatedStock)
	require.Equal(t, 6, repo.items[partID].Qty)

	require.Len(t, repo.movements, 1)
	m := repo.movements[0]
	require.Equal(t, inventory.MovementOut, m.Type)
	require.Equal(t, 2, m.Quantity)
	require.Equal(t, inventory.RefMaintenance, m.Reference)
	require.NotNil(t, m.ReferenceID)
	require.Equal(t, result.LogID, *m.ReferenceID)

	log := repo.logs[result.LogID]
	require.NotNil(t, log.ProductID)
	require.Equal(t, partID, *log.ProductID)
	require.Equal(t, 2, log.QtyUsed)
}

func TestCreateDefaultsToOneUnit(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, EditPolicyForbid)

	repo.seedItem(inventory.Item{ProductName: "Fuse 10A", Qty: 3})

	result, err := svc.Create(context.Background(), LogInput{
		Engineer:      "B. Cruz",
		Action:        ActionReplaced,
		SparePartUsed: "Fuse 10A",
	}, 1)
	require.NoError(t, err)
	require.NotNil(t, result.UpdatedStock)
	require.Equal(t, 2, *result.UpdatedStock)
	require.Equal(t, 1, repo.logs[result.LogID].QtyUsed)
}

func TestCreateNonConsumingActionSkipsStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, EditPolicyForbid)

	repo.seedItem(inventory.Item{ProductName: "Drive Belt", Qty: 8})

	result, err := svc.Create(context.Background(), LogInput{
		Engineer:      "A. Santos",
		Action:        ActionInspected,
		SparePartUsed: "Drive Belt",
	}, 1)
	require.NoError(t, err)
	require.Nil(t, result.UpdatedStock)
	require.Empty(t, repo.movements)
	require.Nil(t, repo.logs[result.LogID].ProductID)
}

func TestCreateUnknownPartRollsBackLog(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, EditPolicyForbid)

	_, err := svc.Create(context.Background(), LogInput{
		Engineer:      "A. Santos",
		Action:        ActionReplaced,
		SparePartUsed: "Ghost Part",
	}, 1)
	require.ErrorIs(t, err, ErrPartNotFound)
	require.Empty(t, repo.logs)
	require.Empty(t, repo.movements)
}

func TestCreateInsufficientStockRollsBackLog(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, EditPolicyForbid)

	partID := repo.seedItem(inventory.Item{ProductName: "Seal Kit", Qty: 1})

	_, err := svc.Create(context.Background(), LogInput{
		Engineer:      "A. Santos",
		Action:        ActionReplaced,
		SparePartUsed: "Seal Kit",
		Quantity:      5,
	}, 1)
	require.ErrorIs(t, err, inventory.ErrNegativeStock)
	require.Empty(t, repo.logs)
	require.Empty(t, repo.movements)
	require.Equal(t, 1, repo.items[partID].Qty)
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, EditPolicyForbid)
	ctx := context.Background()

	_, err := svc.Create(ctx, LogInput{Action: ActionFixed}, 1)
	require.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Create(ctx, LogInput{Engineer: "A"}, 1)
	require.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Create(ctx, LogInput{Engineer: "A", Action: "Exploded"}, 1)
	require.ErrorIs(t, err, ErrInvalidAction)
}

func TestDeleteRestoresStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, EditPolicyForbid)
	ctx := context.Background()

	partID := repo.seedItem(inventory.Item{ProductName: "Drive Belt", Qty: 8})

	result, err := svc.Create(ctx, LogInput{
		Engineer:      "A. Santos",
		Action:        ActionReplaced,
		SparePartUsed: "Drive Belt",
		Quantity:      3,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 5, repo.items[partID].Qty)

	require.NoError(t, svc.Delete(ctx, result.LogID, 1))
	require.Equal(t, 8, repo.items[partID].Qty)
	require.Empty(t, repo.logs)

	require.Len(t, repo.movements, 2)
	correction := repo.movements[1]
	require.Equal(t, inventory.MovementIn, correction.Type)
	require.Equal(t, 3, correction.Quantity)
	require.Equal(t, inventory.RefMaintenanceCorrection, correction.Reference)
	require.NotNil(t, correction.ReferenceID)
	require.Equal(t, result.LogID, *correction.ReferenceID)
}

func TestDeletePlainLogAddsNoMovement(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, EditPolicyForbid)
	ctx := context.Background()

	result, err := svc.Create(ctx, LogInput{Engineer: "A", Action: ActionCleaned}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, result.LogID, 1))
	require.Empty(t, repo.movements)

	require.ErrorIs(t, svc.Delete(ctx, result.LogID, 1), ErrLogNotFound)
}

func TestUpdateForbidPolicyRejectsStockEdits(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, EditPolicyForbid)
	ctx := context.Background()

	repo.seedItem(inventory.Item{ProductName: "Drive Belt", Qty: 8})
	result, err := svc.Create(ctx, LogInput{
		Engineer:      "A. Santos",
		Action:        ActionReplaced,
		SparePartUsed: "Drive Belt",
		Quantity:      2,
	}, 1)
	require.NoError(t, err)

	err = svc.Update(ctx, result.LogID, LogInput{
		Engineer:      "A. Santos",
		Action:        ActionReplaced,
		SparePartUsed: "Drive Belt",
		Quantity:      5,
	}, 1)
	require.ErrorIs(t, err, ErrStockFieldEdit)

	// Non-stock fields remain editable.
	err = svc.Update(ctx, result.LogID, LogInput{
		Engineer:      "A. Santos",
		Action:        ActionReplaced,
		SparePartUsed: "Drive Belt",
		Quantity:      2,
		Remarks:       "belt tension rechecked",
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "belt tension rechecked", repo.logs[result.LogID].Remarks)
	require.Equal(t, 2, repo.logs[result.LogID].QtyUsed)
}

func TestUpdateReapplyPolicyReconcilesStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, EditPolicyReapply)
	ctx := context.Background()

	beltID := repo.seedItem(inventory.Item{ProductName: "Drive Belt", Qty: 8})
	fuseID := repo.seedItem(inventory.Item{ProductName: "Fuse 10A", Qty: 4})

	result, err := svc.Create(ctx, LogInput{
		Engineer:      "A. Santos",
		Action:        ActionReplaced,
		SparePartUsed: "Drive Belt",
		Quantity:      2,
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 6, repo.items[beltID].Qty)

	err = svc.Update(ctx, result.LogID, LogInput{
		Engineer:      "A. Santos",
		Action:        ActionReplaced,
		SparePartUsed: "Fuse 10A",
		Quantity:      1,
	}, 1)
	require.NoError(t, err)

	require.Equal(t, 8, repo.items[beltID].Qty)
	require.Equal(t, 3, repo.items[fuseID].Qty)

	log := repo.logs[result.LogID]
	require.NotNil(t, log.ProductID)
	require.Equal(t, fuseID, *log.ProductID)
	require.Equal(t, 1, log.QtyUsed)
}

func TestPartNameStripsDisplaySuffix(t *testing.T) {
	require.Equal(t, "Drive Belt", PartName("Drive Belt : (8)"))
	require.Equal(t, "Drive Belt", PartName("Drive Belt"))
	require.Equal(t, "", PartName(""))
}
