package procurement

import (
	"errors"
	"time"
)

// Status enumerates the purchase order lifecycle.
type Status string

const (
	// StatusDraft is the state of a freshly generated order.
	StatusDraft Status = "Draft"
	// StatusSent marks an order forwarded to the supplier.
	StatusSent Status = "Sent"
	// StatusReceived marks goods booked into stock.
	StatusReceived Status = "Received"
	// StatusCancelled marks an abandoned order.
	StatusCancelled Status = "Cancelled"
)

// Valid reports whether the status belongs to the lifecycle.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// UnknownSupplier buckets low-stock items that carry no supplier name.
const UnknownSupplier = "Unknown Supplier"

// DefaultReorderQty is ordered when an item has no reorder quantity set.
const DefaultReorderQty = 20

// PurchaseOrder is one order to a supplier. It owns its items; both are
// created together and received together.
type PurchaseOrder struct {
	ID               int64
	PONumber         string
	SupplierName     string
	Status           Status
	TotalCost        float64
	Notes            string
	OrderDate        time.Time
	ExpectedDelivery *time.Time
	CreatedBy        int64
	Items            []POItem
}

// POItem is one order line.
type POItem struct {
	ID        int64
	POID      int64
	ProductID int64
	Quantity  int
	UnitCost  float64
}

// POItemInput carries a manually entered order line.
type POItemInput struct {
	ProductID int64
	Quantity  int
	UnitCost  float64
}

// POInput carries a manually entered purchase order.
type POInput struct {
	SupplierName     string
	Notes            string
	ExpectedDelivery *time.Time
	Items            []POItemInput
}

var (
	// ErrPONotFound indicates the referenced purchase order does not exist.
	ErrPONotFound = errors.New("procurement: purchase order not found")
	// ErrEmptyPO is returned when receiving an order with no items.
	ErrEmptyPO = errors.New("procurement: purchase order has no items")
	// ErrAlreadyReceived is returned when receiving an order twice.
	ErrAlreadyReceived = errors.New("procurement: purchase order already received")
	// ErrDuplicatePONumber signals a unique-constraint conflict on po_number.
	ErrDuplicatePONumber = errors.New("procurement: duplicate po number")
	// ErrInvalidInput indicates malformed manual order input.
	ErrInvalidInput = errors.New("procurement: supplier and at least one item required")
)
