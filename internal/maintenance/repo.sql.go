package maintenance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plantops/plantops/internal/inventory"
)

// Repository persists maintenance logs in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service. The
// embedded inventory store is bound to the same transaction, so a log write
// and its stock movement commit or roll back together.
type TxRepository interface {
	InsertLog(ctx context.Context, log Log) (int64, error)
	UpdateLog(ctx context.Context, id int64, log Log) error
	DeleteLog(ctx context.Context, id int64) error
	GetLogForUpdate(ctx context.Context, id int64) (Log, error)
	Inventory() inventory.TxStore
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("maintenance repository not initialised")
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

const logColumns = `id, engineer, date_of_work, COALESCE(area,''), COALESCE(system,''),
COALESCE(component,''), action, COALESCE(spare_part_used,''), product_id, qty_used,
duration, COALESCE(work_status,''), COALESCE(remarks,''), created_at`

func scanLog(row pgx.Row) (Log, error) {
	var log Log
	var action string
	err := row.Scan(&log.ID, &log.Engineer, &log.DateOfWork, &log.Area, &log.System,
		&log.Component, &action, &log.SparePartUsed, &log.ProductID, &log.QtyUsed,
		&log.Duration, &log.WorkStatus, &log.Remarks, &log.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Log{}, ErrLogNotFound
		}
		return Log{}, err
	}
	log.Action = Action(action)
	return log, nil
}

func (r *txRepository) InsertLog(ctx context.Context, log Log) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO logs
(engineer, date_of_work, area, system, component, action, spare_part_used, product_id, qty_used,
 duration, work_status, remarks, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
RETURNING id`,
		log.Engineer, log.DateOfWork, log.Area, log.System, log.Component, string(log.Action),
		log.SparePartUsed, log.ProductID, log.QtyUsed, log.Duration, log.WorkStatus, log.Remarks).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateLog(ctx context.Context, id int64, log Log) error {
	tag, err := r.tx.Exec(ctx, `UPDATE logs SET
engineer=$2, date_of_work=$3, area=$4, system=$5, component=$6, action=$7,
spare_part_used=$8, product_id=$9, qty_used=$10, duration=$11, work_status=$12, remarks=$13
WHERE id=$1`,
		id, log.Engineer, log.DateOfWork, log.Area, log.System, log.Component, string(log.Action),
		log.SparePartUsed, log.ProductID, log.QtyUsed, log.Duration, log.WorkStatus, log.Remarks)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}
	return nil
}

func (r *txRepository) DeleteLog(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM logs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}
	return nil
}

func (r *txRepository) GetLogForUpdate(ctx context.Context, id int64) (Log, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+logColumns+` FROM logs WHERE id=$1 FOR UPDATE`, id)
	return scanLog(row)
}

// GetLog fetches one log outside any transaction.
func (r *Repository) GetLog(ctx context.Context, id int64) (Log, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+logColumns+` FROM logs WHERE id=$1`, id)
	return scanLog(row)
}

// ListLogs returns logs newest first.
func (r *Repository) ListLogs(ctx context.Context, limit int) ([]Log, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT `+logColumns+` FROM logs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	logs := []Log{}
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
