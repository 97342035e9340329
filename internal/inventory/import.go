package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/plantops/plantops/internal/shared"
)

// ErrImportHeader indicates the CSV header is missing the product_name column.
var ErrImportHeader = errors.New("inventory: csv header must include product_name")

// ImportRowError records why a single CSV row was skipped.
type ImportRowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a CSV intake batch. Every batch gets a UUID so the
// audit trail can be filtered down to one upload.
type ImportResult struct {
	BatchID  string           `json:"batch_id"`
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// importColumns maps recognized header names to ItemInput fields. Unknown
// columns are ignored so exports from other systems can be fed in as-is.
var importColumns = map[string]func(*ItemInput, string) error{
	"product_name":   func(in *ItemInput, v string) error { in.ProductName = v; return nil },
	"qty":            func(in *ItemInput, v string) error { return setInt(&in.Qty, v) },
	"min_qty":        func(in *ItemInput, v string) error { return setInt(&in.MinQty, v) },
	"reorder_point":  func(in *ItemInput, v string) error { return setInt(&in.ReorderPoint, v) },
	"reorder_qty":    func(in *ItemInput, v string) error { return setInt(&in.ReorderQty, v) },
	"unit_cost":      func(in *ItemInput, v string) error { return setFloat(&in.UnitCost, v) },
	"supplier_name":  func(in *ItemInput, v string) error { in.SupplierName = v; return nil },
	"supplier_email": func(in *ItemInput, v string) error { in.SupplierEmail = v; return nil },
	"location_area":  func(in *ItemInput, v string) error { in.LocationArea = v; return nil },
	"location":       func(in *ItemInput, v string) error { in.Location = v; return nil },
	"sub_location":   func(in *ItemInput, v string) error { in.SubLocation = v; return nil },
}

// ImportCSV bulk-creates items from a CSV stream. The first row is a header;
// rows are processed independently so one bad line does not sink the batch.
// Opening balances go through the movement engine exactly like single-item
// creation, so the ledger stays complete for imported stock too.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, actorID int64) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv header: %w", err)
	}
	setters := make([]func(*ItemInput, string) error, len(header))
	hasName := false
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		setters[i] = importColumns[name]
		if name == "product_name" {
			hasName = true
		}
	}
	if !hasName {
		return ImportResult{}, ErrImportHeader
	}

	result := ImportResult{BatchID: uuid.NewString()}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportRowError{Line: line, Reason: err.Error()})
			continue
		}
		input, err := parseImportRow(setters, record)
		if err == nil {
			_, err = s.CreateItem(ctx, input, actorID)
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ImportRowError{Line: line, Reason: err.Error()})
			continue
		}
		result.Imported++
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "IMPORT",
			Entity:   "inventory",
			EntityID: result.BatchID,
			Meta:     map[string]any{"imported": result.Imported, "skipped": result.Skipped},
		})
	}
	return result, nil
}

func parseImportRow(setters []func(*ItemInput, string) error, record []string) (ItemInput, error) {
	var input ItemInput
	for i, raw := range record {
		if i >= len(setters) || setters[i] == nil {
			continue
		}
		if err := setters[i](&input, strings.TrimSpace(raw)); err != nil {
			return ItemInput{}, err
		}
	}
	return input, nil
}

func setInt(dst *int, v string) error {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("not a whole number: %q", v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", v)
	}
	*dst = f
	return nil
}
