package inventory

import (
	"context"
	"time"
)

// TxStore is the slice of storage the movement engine needs, bound to the
// caller's transaction. Coordinating services (maintenance, procurement)
// supply their own transaction scope; the engine never opens one of its own.
type TxStore interface {
	GetItemForUpdate(ctx context.Context, productID int64) (Item, error)
	GetItemByNameForUpdate(ctx context.Context, productName string) (Item, error)
	UpdateItemQty(ctx context.Context, productID int64, qty int) error
	InsertMovement(ctx context.Context, m Movement) (int64, error)
}

// MetricsPort counts posted movements.
type MetricsPort interface {
	ObserveMovement(movementType, reference string)
}

// MovementInput describes one atomic quantity change.
type MovementInput struct {
	ProductID   int64
	Type        MovementType
	Quantity    int
	Reference   ReferenceType
	ReferenceID *int64
	PerformedBy int64
	Notes       string
}

// EngineConfig groups movement policy settings.
type EngineConfig struct {
	AllowNegativeStock bool
}

// Engine applies atomic quantity changes: one ledger row appended, the item
// quantity adjusted, both inside the transaction the caller provides.
type Engine struct {
	allowNeg bool
	metrics  MetricsPort
	now      func() time.Time
}

// NewEngine builds the movement engine.
func NewEngine(cfg EngineConfig, metrics MetricsPort) *Engine {
	return &Engine{allowNeg: cfg.AllowNegativeStock, metrics: metrics, now: time.Now}
}

// WithNow overrides the engine clock for testing.
func (e *Engine) WithNow(fn func() time.Time) {
	if fn != nil {
		e.now = fn
	}
}

// Apply validates the movement, locks the item row, adjusts its quantity and
// appends the ledger entry. Returns the persisted movement and the item's
// resulting quantity.
func (e *Engine) Apply(ctx context.Context, store TxStore, input MovementInput) (Movement, int, error) {
	if input.Quantity <= 0 {
		return Movement{}, 0, ErrInvalidQuantity
	}
	if input.Type != MovementIn && input.Type != MovementOut {
		return Movement{}, 0, ErrInvalidMovementType
	}
	if !input.Reference.Valid() {
		return Movement{}, 0, ErrInvalidReference
	}

	item, err := store.GetItemForUpdate(ctx, input.ProductID)
	if err != nil {
		return Movement{}, 0, err
	}

	delta := input.Quantity
	if input.Type == MovementOut {
		delta = -delta
	}
	newQty := item.Qty + delta
	if newQty < 0 && !e.allowNeg {
		return Movement{}, 0, ErrNegativeStock
	}

	if err := store.UpdateItemQty(ctx, item.ID, newQty); err != nil {
		return Movement{}, 0, err
	}

	movement := Movement{
		ProductID:   item.ID,
		Type:        input.Type,
		Quantity:    input.Quantity,
		Reference:   input.Reference,
		ReferenceID: input.ReferenceID,
		PerformedBy: input.PerformedBy,
		Notes:       input.Notes,
		OccurredAt:  e.now().UTC(),
	}
	id, err := store.InsertMovement(ctx, movement)
	if err != nil {
		return Movement{}, 0, err
	}
	movement.ID = id

	if e.metrics != nil {
		e.metrics.ObserveMovement(string(input.Type), string(input.Reference))
	}
	return movement, newQty, nil
}
