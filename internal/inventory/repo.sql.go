package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	TxStore
	CreateItem(ctx context.Context, input ItemInput) (int64, error)
	UpdateItemInfo(ctx context.Context, id int64, input ItemInput) error
	DeleteItem(ctx context.Context, id int64) error
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{txStore: txStore{tx: tx}}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	txStore
}

// NewTxStore binds the movement engine's storage to an external transaction.
// Coordinating repositories (maintenance, procurement) call this with their
// own pgx.Tx so stock effects commit or roll back with the rest of the
// operation.
func NewTxStore(tx pgx.Tx) TxStore {
	return &txStore{tx: tx}
}

type txStore struct {
	tx pgx.Tx
}

const itemColumns = `id, product_name, qty, min_qty, reorder_point, reorder_qty, unit_cost,
COALESCE(supplier_name,''), COALESCE(supplier_email,''), COALESCE(location_area,''),
COALESCE(location,''), COALESCE(sub_location,''), last_ordered_date, created_at, updated_at`

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.ProductName, &item.Qty, &item.MinQty, &item.ReorderPoint,
		&item.ReorderQty, &item.UnitCost, &item.SupplierName, &item.SupplierEmail,
		&item.LocationArea, &item.Location, &item.SubLocation, &item.LastOrdered,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func (s *txStore) GetItemForUpdate(ctx context.Context, productID int64) (Item, error) {
	row := s.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory WHERE id=$1 FOR UPDATE`, productID)
	return scanItem(row)
}

func (s *txStore) GetItemByNameForUpdate(ctx context.Context, productName string) (Item, error) {
	row := s.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory WHERE product_name=$1 FOR UPDATE`, productName)
	return scanItem(row)
}

func (s *txStore) UpdateItemQty(ctx context.Context, productID int64, qty int) error {
	tag, err := s.tx.Exec(ctx, `UPDATE inventory SET qty=$2, updated_at=NOW() WHERE id=$1`, productID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *txStore) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO stock_movements
(product_id, movement_type, quantity, reference_type, reference_id, performed_by, notes, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,
		m.ProductID, string(m.Type), m.Quantity, string(m.Reference), m.ReferenceID,
		m.PerformedBy, m.Notes, m.OccurredAt).Scan(&id)
	return id, err
}

func (s *txStore) CreateItem(ctx context.Context, input ItemInput) (int64, error) {
	var id int64
	err := s.tx.QueryRow(ctx, `INSERT INTO inventory
(product_name, qty, min_qty, reorder_point, reorder_qty, unit_cost, supplier_name, supplier_email,
 location_area, location, sub_location, created_at, updated_at)
VALUES ($1, 0, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
RETURNING id`,
		input.ProductName, input.MinQty, input.ReorderPoint, input.ReorderQty, input.UnitCost,
		input.SupplierName, input.SupplierEmail, input.LocationArea, input.Location, input.SubLocation).Scan(&id)
	return id, err
}

func (s *txStore) UpdateItemInfo(ctx context.Context, id int64, input ItemInput) error {
	tag, err := s.tx.Exec(ctx, `UPDATE inventory SET
product_name=$2, min_qty=$3, reorder_point=$4, reorder_qty=$5, unit_cost=$6,
supplier_name=$7, supplier_email=$8, location_area=$9, location=$10, sub_location=$11,
updated_at=NOW()
WHERE id=$1`,
		id, input.ProductName, input.MinQty, input.ReorderPoint, input.ReorderQty, input.UnitCost,
		input.SupplierName, input.SupplierEmail, input.LocationArea, input.Location, input.SubLocation)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *txStore) DeleteItem(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM inventory WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory WHERE id=$1`, id)
	return scanItem(row)
}

func (r *Repository) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory ORDER BY product_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

// FindLowStock lists items at or below their reorder point. Items without a
// product name are skipped; they are import artefacts that cannot be ordered.
func (r *Repository) FindLowStock(ctx context.Context) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM inventory
WHERE qty <= reorder_point AND product_name IS NOT NULL AND product_name != ''
ORDER BY (qty - min_qty) ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	items := []Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListMovements returns ledger history newest first, optionally scoped to one
// product.
func (r *Repository) ListMovements(ctx context.Context, productID *int64, limit int) ([]MovementView, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT m.id, m.product_id, m.movement_type, m.quantity,
m.reference_type, m.reference_id, m.performed_by, COALESCE(m.notes,''), m.occurred_at,
COALESCE(i.product_name, 'Unknown'), COALESCE(u.username, 'Unknown')
FROM stock_movements m
LEFT JOIN inventory i ON i.id = m.product_id
LEFT JOIN users u ON u.id = m.performed_by
WHERE ($1::bigint IS NULL OR m.product_id = $1)
ORDER BY m.occurred_at DESC, m.id DESC
LIMIT $2`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	views := []MovementView{}
	for rows.Next() {
		var v MovementView
		var movementType, reference string
		if err := rows.Scan(&v.ID, &v.ProductID, &movementType, &v.Quantity, &reference,
			&v.ReferenceID, &v.PerformedBy, &v.Notes, &v.OccurredAt, &v.ProductName, &v.Username); err != nil {
			return nil, err
		}
		v.Type = MovementType(movementType)
		v.Reference = ReferenceType(reference)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}
