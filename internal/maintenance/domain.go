package maintenance

import (
	"errors"
	"strings"
	"time"
)

// Action is the curated maintenance action taxonomy. The original free-form
// strings are narrowed to a closed set validated at the boundary.
type Action string

const (
	ActionInspected Action = "Inspected"
	ActionReplaced  Action = "Replaced"
	ActionFixed     Action = "Fixed"
	ActionRepair    Action = "Repair"
	ActionCleaned   Action = "Cleaned"
	ActionTightened Action = "Tightened"
)

// Valid reports whether the action belongs to the taxonomy.
func (a Action) Valid() bool {
	switch a {
	case ActionInspected, ActionReplaced, ActionFixed, ActionRepair, ActionCleaned, ActionTightened:
		return true
	}
	return false
}

// ConsumesStock reports whether the action implies a spare-part deduction.
func (a Action) ConsumesStock() bool {
	return a == ActionReplaced
}

// Log is one maintenance event. ProductID and QtyUsed are only set when the
// event consumed a spare part, in which case exactly one OUT ledger entry
// references this log.
type Log struct {
	ID            int64
	Engineer      string
	DateOfWork    *time.Time
	Area          string
	System        string
	Component     string
	Action        Action
	SparePartUsed string
	ProductID     *int64
	QtyUsed       int
	Duration      int
	WorkStatus    string
	Remarks       string
	CreatedAt     time.Time
}

// LogInput carries the writable log fields.
type LogInput struct {
	Engineer      string
	DateOfWork    *time.Time
	Area          string
	System        string
	Component     string
	Action        Action
	SparePartUsed string
	Quantity      int
	Duration      int
	WorkStatus    string
	Remarks       string
}

// CreateResult reports the created log and, when stock was consumed, the
// part's remaining quantity.
type CreateResult struct {
	LogID        int64
	UpdatedStock *int
}

// EditPolicy governs edits to stock-affecting fields (action, spare part,
// quantity) on logs that already consumed parts.
type EditPolicy string

const (
	// EditPolicyForbid rejects edits that change stock-affecting fields.
	EditPolicyForbid EditPolicy = "forbid"
	// EditPolicyReapply reverses the original deduction and applies a fresh
	// one matching the edited fields, in the same transaction.
	EditPolicyReapply EditPolicy = "reapply"
)

// ParseEditPolicy maps a config string to an EditPolicy, defaulting to forbid.
func ParseEditPolicy(raw string) EditPolicy {
	if strings.EqualFold(raw, string(EditPolicyReapply)) {
		return EditPolicyReapply
	}
	return EditPolicyForbid
}

// PartName strips the " : (qty)" display suffix the UI appends to spare-part
// names, leaving the exact inventory product name.
func PartName(sparePartUsed string) string {
	name, _, _ := strings.Cut(sparePartUsed, " : (")
	return strings.TrimSpace(name)
}

var (
	// ErrPartNotFound indicates the named spare part has no inventory record.
	ErrPartNotFound = errors.New("maintenance: spare part not found in inventory")
	// ErrLogNotFound indicates the referenced log does not exist.
	ErrLogNotFound = errors.New("maintenance: log not found")
	// ErrMissingFields indicates required fields were absent.
	ErrMissingFields = errors.New("maintenance: engineer and action are required")
	// ErrInvalidAction indicates an action outside the taxonomy.
	ErrInvalidAction = errors.New("maintenance: unknown action")
	// ErrStockFieldEdit is returned under the forbid policy when an edit
	// touches stock-affecting fields of a log that consumed parts.
	ErrStockFieldEdit = errors.New("maintenance: stock-affecting fields cannot be edited on this log")
)
