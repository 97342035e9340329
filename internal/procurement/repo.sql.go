package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plantops/plantops/internal/inventory"
)

// Repository persists purchase orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service. The
// embedded inventory store is bound to the same transaction, so receiving an
// order and booking its IN movements commit or roll back together.
type TxRepository interface {
	InsertPO(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertPOItem(ctx context.Context, item POItem) (int64, error)
	GetPOForUpdate(ctx context.Context, id int64) (PurchaseOrder, error)
	ListPOItems(ctx context.Context, poID int64) ([]POItem, error)
	SetPOStatus(ctx context.Context, id int64, status Status) error
	TouchLastOrdered(ctx context.Context, productID int64, at time.Time) error
	Inventory() inventory.TxStore
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("procurement repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx, inv: inventory.NewTxStore(tx)}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx  pgx.Tx
	inv inventory.TxStore
}

func (r *txRepository) Inventory() inventory.TxStore {
	return r.inv
}

const poColumns = `id, po_number, supplier_name, status, total_cost, COALESCE(notes,''),
order_date, expected_delivery, created_by`

func scanPO(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	var status string
	err := row.Scan(&po.ID, &po.PONumber, &po.SupplierName, &status, &po.TotalCost,
		&po.Notes, &po.OrderDate, &po.ExpectedDelivery, &po.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrPONotFound
		}
		return PurchaseOrder{}, err
	}
	po.Status = Status(status)
	return po, nil
}

func (r *txRepository) InsertPO(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO purchase_orders
(po_number, supplier_name, status, total_cost, notes, order_date, expected_delivery, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,
		po.PONumber, po.SupplierName, string(po.Status), po.TotalCost, po.Notes,
		po.OrderDate, po.ExpectedDelivery, po.CreatedBy).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicatePONumber
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) InsertPOItem(ctx context.Context, item POItem) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO po_items (po_id, product_id, quantity, unit_cost)
VALUES ($1, $2, $3, $4) RETURNING id`,
		item.POID, item.ProductID, item.Quantity, item.UnitCost).Scan(&id)
	return id, err
}

func (r *txRepository) GetPOForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id=$1 FOR UPDATE`, id)
	return scanPO(row)
}

func (r *txRepository) ListPOItems(ctx context.Context, poID int64) ([]POItem, error) {
	return listPOItems(ctx, r.tx, poID)
}

func (r *txRepository) SetPOStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.tx.Exec(ctx, `UPDATE purchase_orders SET status=$2 WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPONotFound
	}
	return nil
}

func (r *txRepository) TouchLastOrdered(ctx context.Context, productID int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE inventory SET last_ordered_date=$2, updated_at=NOW() WHERE id=$1`, productID, at)
	return err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listPOItems(ctx context.Context, q querier, poID int64) ([]POItem, error) {
	rows, err := q.Query(ctx, `SELECT id, po_id, product_id, quantity, unit_cost
FROM po_items WHERE po_id=$1 ORDER BY id`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []POItem{}
	for rows.Next() {
		var item POItem
		if err := rows.Scan(&item.ID, &item.POID, &item.ProductID, &item.Quantity, &item.UnitCost); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetPO fetches one purchase order with its items.
func (r *Repository) GetPO(ctx context.Context, id int64) (PurchaseOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id=$1`, id)
	po, err := scanPO(row)
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Items, err = listPOItems(ctx, r.pool, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	return po, nil
}

// ListPOs returns purchase orders newest first, without item lines.
func (r *Repository) ListPOs(ctx context.Context, limit int) ([]PurchaseOrder, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+poColumns+` FROM purchase_orders
ORDER BY order_date DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	pos := []PurchaseOrder{}
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, err
		}
		pos = append(pos, po)
	}
	return pos, rows.Err()
}
