package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyConservation(t *testing.T) {
	repo := newMemoryRepo()
	engine := NewEngine(EngineConfig{}, nil)
	ctx := context.Background()

	id := repo.seedItem(Item{ProductName: "Bearing 6204", Qty: 50, ReorderPoint: 10, ReorderQty: 20})

	steps := []struct {
		movementType MovementType
		qty          int
	}{
		{MovementIn, 10},
		{MovementOut, 7},
		{MovementIn, 3},
		{MovementOut, 16},
	}

	var finalQty int
	for _, step := range steps {
		err := repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			_, newQty, err := engine.Apply(ctx, tx, MovementInput{
				ProductID: id,
				Type:      step.movementType,
				Quantity:  step.qty,
				Reference: RefAdjustment,
			})
			finalQty = newQty
			return err
		})
		require.NoError(t, err)
	}

	// 50 + 10 - 7 + 3 - 16
	require.Equal(t, 40, finalQty)
	require.Len(t, repo.movements, 4)
}

func TestApplyRejectsNegativeStock(t *testing.T) {
	repo := newMemoryRepo()
	engine := NewEngine(EngineConfig{}, nil)
	ctx := context.Background()

	id := repo.seedItem(Item{ProductName: "Fuse 10A", Qty: 2})

	err := repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, _, err := engine.Apply(ctx, tx, MovementInput{ProductID: id, Type: MovementOut, Quantity: 3, Reference: RefMaintenance})
		return err
	})
	require.ErrorIs(t, err, ErrNegativeStock)
	require.Empty(t, repo.movements)
	require.Equal(t, 2, repo.items[id].Qty)
}

func TestApplyAllowsNegativeWhenConfigured(t *testing.T) {
	repo := newMemoryRepo()
	engine := NewEngine(EngineConfig{AllowNegativeStock: true}, nil)
	ctx := context.Background()

	id := repo.seedItem(Item{ProductName: "Fuse 10A", Qty: 2})

	var qty int
	err := repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, newQty, err := engine.Apply(ctx, tx, MovementInput{ProductID: id, Type: MovementOut, Quantity: 5, Reference: RefMaintenance})
		qty = newQty
		return err
	})
	require.NoError(t, err)
	require.Equal(t, -3, qty)
}

func TestApplyValidation(t *testing.T) {
	repo := newMemoryRepo()
	engine := NewEngine(EngineConfig{}, nil)
	ctx := context.Background()

	id := repo.seedItem(Item{ProductName: "Belt", Qty: 5})

	run := func(input MovementInput) error {
		return repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			_, _, err := engine.Apply(ctx, tx, input)
			return err
		})
	}

	require.ErrorIs(t, run(MovementInput{ProductID: id, Type: MovementIn, Quantity: 0, Reference: RefInitial}), ErrInvalidQuantity)
	require.ErrorIs(t, run(MovementInput{ProductID: id, Type: "TRANSFER", Quantity: 1, Reference: RefInitial}), ErrInvalidMovementType)
	require.ErrorIs(t, run(MovementInput{ProductID: id, Type: MovementIn, Quantity: 1, Reference: "BACKFILL"}), ErrInvalidReference)
	require.ErrorIs(t, run(MovementInput{ProductID: 999, Type: MovementIn, Quantity: 1, Reference: RefInitial}), ErrItemNotFound)
}
