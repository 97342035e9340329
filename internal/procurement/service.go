package procurement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/plantops/plantops/internal/inventory"
	"github.com/plantops/plantops/internal/shared"
)

// maxPONumberAttempts bounds retries when a generated number collides.
const maxPONumberAttempts = 5

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPO(ctx context.Context, id int64) (PurchaseOrder, error)
	ListPOs(ctx context.Context, limit int) ([]PurchaseOrder, error)
}

// LowStockSource supplies the trigger set for reorder generation.
type LowStockSource interface {
	FindLowStock(ctx context.Context) ([]inventory.Item, error)
}

// Notifier delivers procurement notifications. Calls are best-effort; a
// failed send never rolls back the order it reports on.
type Notifier interface {
	SendPOConfirmation(ctx context.Context, po PurchaseOrder, recipient string) error
	SendLowStockAlert(ctx context.Context, items []inventory.Item, recipient string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheBumper invalidates cached analytics after stock-affecting writes.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service generates purchase orders from the low-stock set and books goods
// receipt through the movement engine.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	lowStock LowStockSource
	engine   *inventory.Engine
	notifier Notifier
	audit    AuditPort
	cache    CacheBumper
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService builds Service.
func NewService(logger *slog.Logger, repo RepositoryPort, lowStock LowStockSource, engine *inventory.Engine, notifier Notifier, audit AuditPort, cache CacheBumper) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		lowStock: lowStock,
		engine:   engine,
		notifier: notifier,
		audit:    audit,
		cache:    cache,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// WithRand overrides the suffix source for testing.
func (s *Service) WithRand(rng *rand.Rand) {
	if rng != nil {
		s.rng = rng
	}
}

// GenerateReorders groups the current low-stock set by supplier and creates
// one draft order per supplier. Items without a supplier fall into the
// "Unknown Supplier" bucket. Ordered quantity is the item's reorder quantity,
// or 20 units when unset. Creation touches no stock; quantities change only
// on receipt. A confirmation is sent per order, best-effort.
func (s *Service) GenerateReorders(ctx context.Context, adminEmail string, actorID int64) ([]PurchaseOrder, error) {
	items, err := s.lowStock.FindLowStock(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []PurchaseOrder{}, nil
	}

	groups := map[string][]inventory.Item{}
	for _, item := range items {
		supplier := strings.TrimSpace(item.SupplierName)
		if supplier == "" {
			supplier = UnknownSupplier
		}
		groups[supplier] = append(groups[supplier], item)
	}
	suppliers := make([]string, 0, len(groups))
	for supplier := range groups {
		suppliers = append(suppliers, supplier)
	}
	sort.Strings(suppliers)

	created := make([]PurchaseOrder, 0, len(suppliers))
	for _, supplier := range suppliers {
		po, err := s.createDraft(ctx, supplier, groups[supplier], actorID)
		if err != nil {
			return nil, err
		}
		created = append(created, po)
		s.sendConfirmation(ctx, po, adminEmail)
	}

	s.recordAudit(ctx, actorID, "GENERATE_REORDERS", 0, map[string]any{
		"orders":    len(created),
		"low_stock": len(items),
	})
	return created, nil
}

func (s *Service) createDraft(ctx context.Context, supplier string, items []inventory.Item, actorID int64) (PurchaseOrder, error) {
	return s.insertWithRetry(ctx, func() PurchaseOrder {
		po := PurchaseOrder{
			PONumber:     s.nextPONumber(),
			SupplierName: supplier,
			Status:       StatusDraft,
			OrderDate:    s.now().UTC(),
			CreatedBy:    actorID,
		}
		for _, item := range items {
			qty := item.ReorderQty
			if qty <= 0 {
				qty = DefaultReorderQty
			}
			po.TotalCost += item.UnitCost * float64(qty)
			po.Items = append(po.Items, POItem{ProductID: item.ID, Quantity: qty, UnitCost: item.UnitCost})
		}
		return po
	})
}

// insertWithRetry persists the order built by the callback, regenerating the
// date-based number on a unique-constraint collision. The constraint is the
// arbiter of uniqueness, not the generator.
func (s *Service) insertWithRetry(ctx context.Context, build func() PurchaseOrder) (PurchaseOrder, error) {
	for attempt := 0; attempt < maxPONumberAttempts; attempt++ {
		po := build()
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			id, err := tx.InsertPO(ctx, po)
			if err != nil {
				return err
			}
			po.ID = id
			for i := range po.Items {
				po.Items[i].POID = id
				itemID, err := tx.InsertPOItem(ctx, po.Items[i])
				if err != nil {
					return err
				}
				po.Items[i].ID = itemID
			}
			return nil
		})
		if err == nil {
			return po, nil
		}
		if !errors.Is(err, ErrDuplicatePONumber) {
			return PurchaseOrder{}, err
		}
	}
	return PurchaseOrder{}, fmt.Errorf("%w: exhausted %d attempts", ErrDuplicatePONumber, maxPONumberAttempts)
}

// nextPONumber synthesizes a human-readable order number. Uniqueness is
// enforced by the database, not by this generator. rand.Rand is not safe for
// concurrent use, so the suffix draw is serialized.
func (s *Service) nextPONumber() string {
	s.rngMu.Lock()
	suffix := s.rng.Intn(1000)
	s.rngMu.Unlock()
	return fmt.Sprintf("PO-%s-%03d", s.now().UTC().Format("20060102"), suffix)
}

// CreateManual records an operator-entered purchase order.
func (s *Service) CreateManual(ctx context.Context, input POInput, actorID int64) (PurchaseOrder, error) {
	if input.SupplierName == "" || len(input.Items) == 0 {
		return PurchaseOrder{}, ErrInvalidInput
	}
	for _, line := range input.Items {
		if line.ProductID <= 0 || line.Quantity <= 0 || line.UnitCost < 0 {
			return PurchaseOrder{}, fmt.Errorf("%w: bad order line", ErrInvalidInput)
		}
	}

	created, err := s.insertWithRetry(ctx, func() PurchaseOrder {
		po := PurchaseOrder{
			PONumber:         s.nextPONumber(),
			SupplierName:     input.SupplierName,
			Status:           StatusDraft,
			Notes:            input.Notes,
			OrderDate:        s.now().UTC(),
			ExpectedDelivery: input.ExpectedDelivery,
			CreatedBy:        actorID,
		}
		for _, line := range input.Items {
			po.TotalCost += line.UnitCost * float64(line.Quantity)
			po.Items = append(po.Items, POItem{ProductID: line.ProductID, Quantity: line.Quantity, UnitCost: line.UnitCost})
		}
		return po
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	s.recordAudit(ctx, actorID, "CREATE", created.ID, map[string]any{
		"po_number": created.PONumber,
		"supplier":  created.SupplierName,
	})
	return created, nil
}

// Receive books the goods of an order into stock: one IN movement per line,
// the item's last-ordered date refreshed, status set to Received. The whole
// receipt is one transaction; a failure on any line aborts all of it.
func (s *Service) Receive(ctx context.Context, poID int64, actorID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetPOForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status == StatusReceived {
			return ErrAlreadyReceived
		}
		items, err := tx.ListPOItems(ctx, poID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyPO
		}

		receivedAt := s.now().UTC()
		for _, line := range items {
			if _, _, err := s.engine.Apply(ctx, tx.Inventory(), inventory.MovementInput{
				ProductID:   line.ProductID,
				Type:        inventory.MovementIn,
				Quantity:    line.Quantity,
				Reference:   inventory.RefPurchaseOrder,
				ReferenceID: &poID,
				PerformedBy: actorID,
				Notes:       fmt.Sprintf("Received against %s", po.PONumber),
			}); err != nil {
				return err
			}
			if err := tx.TouchLastOrdered(ctx, line.ProductID, receivedAt); err != nil {
				return err
			}
		}
		return tx.SetPOStatus(ctx, poID, StatusReceived)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, "RECEIVE", poID, nil)
	s.bumpCache(ctx)
	return nil
}

// CheckAndAlert runs the daily low-stock scan and mails the result. It
// creates no orders; the operator decides whether to trigger generation.
func (s *Service) CheckAndAlert(ctx context.Context, adminEmail string) (int, error) {
	items, err := s.lowStock.FindLowStock(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 || adminEmail == "" {
		return len(items), nil
	}
	if s.notifier == nil {
		return len(items), nil
	}
	if err := s.notifier.SendLowStockAlert(ctx, items, adminEmail); err != nil {
		s.logger.Warn("low stock alert failed", slog.Any("error", err))
	}
	return len(items), nil
}

// GetPO fetches one order with its lines.
func (s *Service) GetPO(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.repo.GetPO(ctx, id)
}

// ListPOs returns orders newest first.
func (s *Service) ListPOs(ctx context.Context) ([]PurchaseOrder, error) {
	return s.repo.ListPOs(ctx, 100)
}

func (s *Service) sendConfirmation(ctx context.Context, po PurchaseOrder, recipient string) {
	if s.notifier == nil || recipient == "" {
		return
	}
	if err := s.notifier.SendPOConfirmation(ctx, po, recipient); err != nil {
		s.logger.Warn("po confirmation failed",
			slog.String("po_number", po.PONumber), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, poID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase_orders",
		EntityID: fmt.Sprintf("%d", poID),
		Meta:     meta,
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
