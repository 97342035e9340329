package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/plantops/plantops/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetItem(ctx context.Context, id int64) (Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	FindLowStock(ctx context.Context) ([]Item, error)
	ListMovements(ctx context.Context, productID *int64, limit int) ([]MovementView, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheBumper invalidates cached analytics after stock-affecting writes.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service coordinates item lifecycle and adjustment movements.
type Service struct {
	repo   RepositoryPort
	engine *Engine
	audit  AuditPort
	cache  CacheBumper
}

// NewService builds Service.
func NewService(repo RepositoryPort, engine *Engine, audit AuditPort, cache CacheBumper) *Service {
	return &Service{repo: repo, engine: engine, audit: audit, cache: cache}
}

// Engine exposes the movement engine for coordinating services.
func (s *Service) Engine() *Engine {
	return s.engine
}

// CreateItem adds a new spare part. An opening balance greater than zero is
// posted through the engine as an INITIAL movement so the ledger starts out
// complete.
func (s *Service) CreateItem(ctx context.Context, input ItemInput, actorID int64) (Item, error) {
	if strings.TrimSpace(input.ProductName) == "" {
		return Item{}, ErrNameRequired
	}
	if input.Qty < 0 {
		return Item{}, ErrInvalidQuantity
	}
	applyDefaults(&input)

	var created Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateItem(ctx, input)
		if err != nil {
			return err
		}
		qty := 0
		if input.Qty > 0 {
			_, newQty, err := s.engine.Apply(ctx, tx, MovementInput{
				ProductID:   id,
				Type:        MovementIn,
				Quantity:    input.Qty,
				Reference:   RefInitial,
				PerformedBy: actorID,
				Notes:       "Initial stock",
			})
			if err != nil {
				return err
			}
			qty = newQty
		}
		created = itemFromInput(id, input)
		created.Qty = qty
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, actorID, "CREATE", created.ID, map[string]any{"product_name": created.ProductName, "qty": created.Qty})
	s.bumpCache(ctx)
	return created, nil
}

// UpdateItem edits item fields. A quantity change is not written directly:
// the difference is posted as an ADJUSTMENT movement.
func (s *Service) UpdateItem(ctx context.Context, id int64, input ItemInput, actorID int64) (Item, error) {
	if strings.TrimSpace(input.ProductName) == "" {
		return Item{}, ErrNameRequired
	}
	if input.Qty < 0 {
		return Item{}, ErrInvalidQuantity
	}

	var updated Item
	var old Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		old, err = tx.GetItemForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.UpdateItemInfo(ctx, id, input); err != nil {
			return err
		}
		qty := old.Qty
		if diff := input.Qty - old.Qty; diff != 0 {
			movementType := MovementIn
			if diff < 0 {
				movementType = MovementOut
				diff = -diff
			}
			_, newQty, err := s.engine.Apply(ctx, tx, MovementInput{
				ProductID:   id,
				Type:        movementType,
				Quantity:    diff,
				Reference:   RefAdjustment,
				PerformedBy: actorID,
				Notes:       "Manual adjustment",
			})
			if err != nil {
				return err
			}
			qty = newQty
		}
		updated = itemFromInput(id, input)
		updated.Qty = qty
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	s.recordAudit(ctx, actorID, "UPDATE", id, map[string]any{"old_qty": old.Qty, "new_qty": updated.Qty, "product_name": updated.ProductName})
	s.bumpCache(ctx)
	return updated, nil
}

// DeleteItem removes an item. The full prior row is captured in the audit
// trail; ledger rows referencing it are retained.
func (s *Service) DeleteItem(ctx context.Context, id int64, actorID int64) error {
	var old Item
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		old, err = tx.GetItemForUpdate(ctx, id)
		if err != nil {
			return err
		}
		return tx.DeleteItem(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "DELETE", id, map[string]any{
		"product_name": old.ProductName,
		"qty":          old.Qty,
		"unit_cost":    old.UnitCost,
		"supplier":     old.SupplierName,
	})
	s.bumpCache(ctx)
	return nil
}

// GetItem fetches one item.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems lists all items.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	return s.repo.ListItems(ctx)
}

// FindLowStock returns items at or below their reorder point. Pure read; safe
// to call repeatedly.
func (s *Service) FindLowStock(ctx context.Context) ([]Item, error) {
	return s.repo.FindLowStock(ctx)
}

// ListMovements returns ledger history, optionally per product.
func (s *Service) ListMovements(ctx context.Context, productID *int64) ([]MovementView, error) {
	return s.repo.ListMovements(ctx, productID, 100)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, itemID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "inventory",
		EntityID: fmt.Sprintf("%d", itemID),
		Meta:     meta,
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}

func applyDefaults(input *ItemInput) {
	if input.MinQty <= 0 {
		input.MinQty = 10
	}
	if input.ReorderPoint <= 0 {
		input.ReorderPoint = 10
	}
	if input.ReorderQty <= 0 {
		input.ReorderQty = 20
	}
}

func itemFromInput(id int64, input ItemInput) Item {
	return Item{
		ID:            id,
		ProductName:   input.ProductName,
		Qty:           input.Qty,
		MinQty:        input.MinQty,
		ReorderPoint:  input.ReorderPoint,
		ReorderQty:    input.ReorderQty,
		UnitCost:      input.UnitCost,
		SupplierName:  input.SupplierName,
		SupplierEmail: input.SupplierEmail,
		LocationArea:  input.LocationArea,
		Location:      input.Location,
		SubLocation:   input.SubLocation,
	}
}
