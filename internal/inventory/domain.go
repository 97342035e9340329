package inventory

import (
	"errors"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementIn represents an inbound movement.
	MovementIn MovementType = "IN"
	// MovementOut represents an outbound movement.
	MovementOut MovementType = "OUT"
)

// ReferenceType tags a movement with the operation that caused it. The set is
// closed; anything else is rejected at the boundary.
type ReferenceType string

const (
	// RefInitial is the intake movement created with a new item.
	RefInitial ReferenceType = "INITIAL"
	// RefAdjustment covers manual quantity corrections on item edits.
	RefAdjustment ReferenceType = "ADJUSTMENT"
	// RefPurchaseOrder marks goods received against a purchase order.
	RefPurchaseOrder ReferenceType = "PO"
	// RefMaintenance marks parts consumed by a maintenance log.
	RefMaintenance ReferenceType = "MAINTENANCE"
	// RefMaintenanceCorrection restores stock when a maintenance log is deleted.
	RefMaintenanceCorrection ReferenceType = "MAINTENANCE_CORRECTION"
)

// Valid reports whether the reference tag belongs to the closed set.
func (r ReferenceType) Valid() bool {
	switch r {
	case RefInitial, RefAdjustment, RefPurchaseOrder, RefMaintenance, RefMaintenanceCorrection:
		return true
	}
	return false
}

// Item is a spare part held in the storeroom. Quantity is only ever mutated
// through the movement engine so the ledger stays complete.
type Item struct {
	ID            int64
	ProductName   string
	Qty           int
	MinQty        int
	ReorderPoint  int
	ReorderQty    int
	UnitCost      float64
	SupplierName  string
	SupplierEmail string
	LocationArea  string
	Location      string
	SubLocation   string
	LastOrdered   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Movement is one immutable ledger entry. Rows are appended exactly once per
// quantity-affecting operation and never updated or deleted.
type Movement struct {
	ID          int64
	ProductID   int64
	Type        MovementType
	Quantity    int
	Reference   ReferenceType
	ReferenceID *int64
	PerformedBy int64
	Notes       string
	OccurredAt  time.Time
}

// MovementView joins a ledger entry with display names for the history list.
type MovementView struct {
	Movement
	ProductName string
	Username    string
}

// ItemInput carries the writable item fields.
type ItemInput struct {
	ProductName   string
	Qty           int
	MinQty        int
	ReorderPoint  int
	ReorderQty    int
	UnitCost      float64
	SupplierName  string
	SupplierEmail string
	LocationArea  string
	Location      string
	SubLocation   string
}

var (
	// ErrItemNotFound indicates the referenced product does not exist.
	ErrItemNotFound = errors.New("inventory: item not found")
	// ErrNegativeStock is returned when a movement would overdraw the item
	// and negative stock is not allowed.
	ErrNegativeStock = errors.New("inventory: negative stock not allowed")
	// ErrInvalidQuantity indicates a non-positive movement quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInvalidReference indicates a reference tag outside the closed set.
	ErrInvalidReference = errors.New("inventory: unknown reference type")
	// ErrInvalidMovementType indicates a movement type other than IN/OUT.
	ErrInvalidMovementType = errors.New("inventory: movement type must be IN or OUT")
	// ErrNameRequired indicates a missing product name.
	ErrNameRequired = errors.New("inventory: product name required")
)
