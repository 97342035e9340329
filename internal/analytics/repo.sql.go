package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository serves the read-only queries behind the reports. Nothing here
// mutates state; all stock writes go through the movement engine.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FetchEvents returns the full maintenance history in raw form. Date
// resolution happens in the consumers through the shared helper.
func (r *Repository) FetchEvents(ctx context.Context) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT COALESCE(system,''), COALESCE(area,''),
COALESCE(component,''), action, date_of_work,
COALESCE(EXTRACT(EPOCH FROM created_at)::bigint, 0), duration
FROM logs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := []Event{}
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.System, &ev.Area, &ev.Component, &ev.Action,
			&ev.WorkDate, &ev.RawTS, &ev.Duration); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Movement windows filter on occurred_at, the column the movement engine
// stamps when it appends a ledger row.
const partUsageQuery = `SELECT i.id, i.product_name,
COALESCE(SUM(m.quantity), 0)::int, COALESCE(SUM(m.quantity * i.unit_cost), 0)
FROM stock_movements m
JOIN inventory i ON i.id = m.product_id
WHERE m.movement_type = 'OUT' AND m.reference_type = 'MAINTENANCE' AND m.occurred_at >= $1
GROUP BY i.id, i.product_name
ORDER BY 3 DESC
LIMIT $2`

// PartUsage sums maintenance consumption per part since the cutoff,
// heaviest users first.
func (r *Repository) PartUsage(ctx context.Context, since time.Time, limit int) ([]PartUsage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, partUsageQuery, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	usage := []PartUsage{}
	for rows.Next() {
		var row PartUsage
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.TotalUsed, &row.TotalCost); err != nil {
			return nil, err
		}
		usage = append(usage, row)
	}
	return usage, rows.Err()
}

// StockRow pairs the raw dashboard fields with the item's average daily OUT
// consumption over the trailing window.
type StockRow struct {
	ProductID    int64
	ProductName  string
	Qty          int
	ReorderPoint int
	UnitCost     float64
	DailyUsage   float64
}

const stockHealthQuery = `SELECT i.id, i.product_name, i.qty, i.reorder_point, i.unit_cost,
COALESCE(SUM(m.quantity) FILTER (WHERE m.movement_type = 'OUT'
    AND m.occurred_at >= NOW() - make_interval(days => $1)), 0)::float8 / $1
FROM inventory i
LEFT JOIN stock_movements m ON m.product_id = i.id
WHERE i.product_name != ''
GROUP BY i.id, i.product_name, i.qty, i.reorder_point, i.unit_cost
ORDER BY i.qty - i.reorder_point`

// StockHealth returns every named item with its consumption rate over the
// trailing window.
func (r *Repository) StockHealth(ctx context.Context, windowDays int) ([]StockRow, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	rows, err := r.pool.Query(ctx, stockHealthQuery, windowDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []StockRow{}
	for rows.Next() {
		var row StockRow
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.Qty,
			&row.ReorderPoint, &row.UnitCost, &row.DailyUsage); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Overview returns the storeroom headline figures in one query round.
func (r *Repository) Overview(ctx context.Context) (Overview, error) {
	var ov Overview
	err := r.pool.QueryRow(ctx, `SELECT
(SELECT COUNT(*) FROM inventory WHERE product_name != ''),
(SELECT COUNT(*) FROM inventory WHERE product_name != '' AND qty <= reorder_point),
(SELECT COALESCE(SUM(qty * unit_cost), 0) FROM inventory),
(SELECT COUNT(*) FROM logs)`).
		Scan(&ov.TotalItems, &ov.LowStockItems, &ov.StockValue, &ov.TotalLogs)
	return ov, err
}
