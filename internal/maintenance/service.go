package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/plantops/plantops/internal/inventory"
	"github.com/plantops/plantops/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetLog(ctx context.Context, id int64) (Log, error)
	ListLogs(ctx context.Context, limit int) ([]Log, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheBumper invalidates cached analytics after stock-affecting writes.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service coordinates the maintenance log lifecycle together with its stock
// effects. A log that consumes a part and the matching OUT movement are
// written in one transaction; deleting such a log issues the compensating IN
// movement the same way.
type Service struct {
	repo       RepositoryPort
	engine     *inventory.Engine
	audit      AuditPort
	cache      CacheBumper
	editPolicy EditPolicy
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	EditPolicy EditPolicy
}

// NewService builds Service.
func NewService(repo RepositoryPort, engine *inventory.Engine, audit AuditPort, cache CacheBumper, cfg ServiceConfig) *Service {
	policy := cfg.EditPolicy
	if policy == "" {
		policy = EditPolicyForbid
	}
	return &Service{repo: repo, engine: engine, audit: audit, cache: cache, editPolicy: policy}
}

// Create validates and writes a maintenance log. When the action consumes a
// spare part, the part is resolved by exact name, at least one unit is
// deducted, and the ledger entry references the created log.
func (s *Service) Create(ctx context.Context, input LogInput, actorID int64) (CreateResult, error) {
	if input.Engineer == "" || input.Action == "" {
		return CreateResult{}, ErrMissingFields
	}
	if !input.Action.Valid() {
		return CreateResult{}, ErrInvalidAction
	}
	if input.Duration < 0 || input.Quantity < 0 {
		return CreateResult{}, fmt.Errorf("%w: negative duration or quantity", ErrMissingFields)
	}

	targetName := PartName(input.SparePartUsed)
	consuming := input.Action.ConsumesStock() && targetName != ""

	var (
		result  CreateResult
		usedQty int
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		log := logFromInput(input)
		if !consuming {
			id, err := tx.InsertLog(ctx, log)
			if err != nil {
				return err
			}
			result = CreateResult{LogID: id}
			return nil
		}

		item, err := tx.Inventory().GetItemByNameForUpdate(ctx, targetName)
		if err != nil {
			if errors.Is(err, inventory.ErrItemNotFound) {
				return fmt.Errorf("%w: %s", ErrPartNotFound, targetName)
			}
			return err
		}

		qtyUsed := input.Quantity
		if qtyUsed <= 0 {
			qtyUsed = 1
		}
		log.ProductID = &item.ID
		log.QtyUsed = qtyUsed

		id, err := tx.InsertLog(ctx, log)
		if err != nil {
			return err
		}

		_, newQty, err := s.engine.Apply(ctx, tx.Inventory(), inventory.MovementInput{
			ProductID:   item.ID,
			Type:        inventory.MovementOut,
			Quantity:    qtyUsed,
			Reference:   inventory.RefMaintenance,
			ReferenceID: &id,
			PerformedBy: actorID,
			Notes:       fmt.Sprintf("Maintenance: %s", input.Action),
		})
		if err != nil {
			return err
		}
		result = CreateResult{LogID: id, UpdatedStock: &newQty}
		usedQty = qtyUsed
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}

	s.recordAudit(ctx, actorID, "CREATE", result.LogID, map[string]any{
		"engineer":  input.Engineer,
		"action":    string(input.Action),
		"component": input.Component,
		"qty_used":  usedQty,
	})
	s.bumpCache(ctx)
	return result, nil
}

// Delete removes a log. If the log consumed stock, the same transaction posts
// a compensating IN movement restoring the part to its pre-log quantity. The
// audit entry captures the full prior state of the deleted row.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	var old Log
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		old, err = tx.GetLogForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := s.reverseStock(ctx, tx, old, actorID); err != nil {
			return err
		}
		return tx.DeleteLog(ctx, id)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, "DELETE", id, map[string]any{
		"engineer":        old.Engineer,
		"date_of_work":    old.DateOfWork,
		"area":            old.Area,
		"system":          old.System,
		"component":       old.Component,
		"action":          string(old.Action),
		"spare_part_used": old.SparePartUsed,
		"product_id":      old.ProductID,
		"qty_used":        old.QtyUsed,
		"duration":        old.Duration,
		"work_status":     old.WorkStatus,
		"remarks":         old.Remarks,
	})
	s.bumpCache(ctx)
	return nil
}

// Update edits a log. Changes to stock-affecting fields on a log that
// consumed parts follow the configured edit policy: rejected outright, or
// reversed and re-applied inside the same transaction.
func (s *Service) Update(ctx context.Context, id int64, input LogInput, actorID int64) error {
	if input.Engineer == "" || input.Action == "" {
		return ErrMissingFields
	}
	if !input.Action.Valid() {
		return ErrInvalidAction
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		old, err := tx.GetLogForUpdate(ctx, id)
		if err != nil {
			return err
		}

		next := logFromInput(input)
		next.ProductID = old.ProductID
		next.QtyUsed = old.QtyUsed

		if !stockFieldsChanged(old, input) {
			return tx.UpdateLog(ctx, id, next)
		}

		if s.editPolicy == EditPolicyForbid {
			if old.ProductID != nil && old.QtyUsed > 0 {
				return ErrStockFieldEdit
			}
			if input.Action.ConsumesStock() && PartName(input.SparePartUsed) != "" {
				// A plain log cannot grow a deduction through an edit either;
				// delete and re-create instead.
				return ErrStockFieldEdit
			}
			return tx.UpdateLog(ctx, id, next)
		}

		if err := s.reverseStock(ctx, tx, old, actorID); err != nil {
			return err
		}
		next.ProductID = nil
		next.QtyUsed = 0

		if targetName := PartName(input.SparePartUsed); input.Action.ConsumesStock() && targetName != "" {
			item, err := tx.Inventory().GetItemByNameForUpdate(ctx, targetName)
			if err != nil {
				if errors.Is(err, inventory.ErrItemNotFound) {
					return fmt.Errorf("%w: %s", ErrPartNotFound, targetName)
				}
				return err
			}
			qtyUsed := input.Quantity
			if qtyUsed <= 0 {
				qtyUsed = 1
			}
			if _, _, err := s.engine.Apply(ctx, tx.Inventory(), inventory.MovementInput{
				ProductID:   item.ID,
				Type:        inventory.MovementOut,
				Quantity:    qtyUsed,
				Reference:   inventory.RefMaintenance,
				ReferenceID: &id,
				PerformedBy: actorID,
				Notes:       fmt.Sprintf("Maintenance (edited): %s", input.Action),
			}); err != nil {
				return err
			}
			next.ProductID = &item.ID
			next.QtyUsed = qtyUsed
		}
		return tx.UpdateLog(ctx, id, next)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, "UPDATE", id, map[string]any{"engineer": input.Engineer, "action": string(input.Action)})
	s.bumpCache(ctx)
	return nil
}

// Get fetches one log.
func (s *Service) Get(ctx context.Context, id int64) (Log, error) {
	return s.repo.GetLog(ctx, id)
}

// List returns logs newest first.
func (s *Service) List(ctx context.Context) ([]Log, error) {
	return s.repo.ListLogs(ctx, 200)
}

// reverseStock posts the compensating IN movement for a log that consumed
// parts. Logs without stock effects pass through untouched.
func (s *Service) reverseStock(ctx context.Context, tx TxRepository, log Log, actorID int64) error {
	if log.ProductID == nil || log.QtyUsed <= 0 || !log.Action.ConsumesStock() {
		return nil
	}
	_, _, err := s.engine.Apply(ctx, tx.Inventory(), inventory.MovementInput{
		ProductID:   *log.ProductID,
		Type:        inventory.MovementIn,
		Quantity:    log.QtyUsed,
		Reference:   inventory.RefMaintenanceCorrection,
		ReferenceID: &log.ID,
		PerformedBy: actorID,
		Notes:       fmt.Sprintf("Stock restored for log #%d", log.ID),
	})
	return err
}

func stockFieldsChanged(old Log, input LogInput) bool {
	return old.Action != input.Action ||
		old.SparePartUsed != input.SparePartUsed ||
		(old.QtyUsed > 0 && input.Quantity != old.QtyUsed)
}

func logFromInput(input LogInput) Log {
	return Log{
		Engineer:      input.Engineer,
		DateOfWork:    input.DateOfWork,
		Area:          input.Area,
		System:        input.System,
		Component:     input.Component,
		Action:        input.Action,
		SparePartUsed: input.SparePartUsed,
		Duration:      input.Duration,
		WorkStatus:    input.WorkStatus,
		Remarks:       input.Remarks,
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, logID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "logs",
		EntityID: fmt.Sprintf("%d", logID),
		Meta:     meta,
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
