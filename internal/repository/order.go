package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

const orderColumns = `id, agency_id, order_date, status, created_by, note, created_at, updated_at`

const orderLineColumns = `id, order_id, product_id, quantity, unit_price`

const defaultListLimit = 50

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order header and all of its lines.
func (r *OrderRepository) Create(ctx context.Context, tx *sql.Tx, o *domain.ExportOrder) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO export_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.AgencyID, o.OrderDate, o.Status, o.CreatedBy, o.Note, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapPQError(err))
	}

	for _, l := range o.Lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO export_order_lines (`+orderLineColumns+`)
			VALUES ($1, $2, $3, $4, $5)`,
			l.ID, l.OrderID, l.ProductID, l.Quantity, l.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("Create: line: %w", mapPQError(err))
		}
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExportOrder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM export_orders WHERE id = $1`, id,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}

	if err := r.attachLines(ctx, r.db, []*domain.ExportOrder{o}); err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return o, nil
}

// GetForUpdate locks the order header. Lines are immutable after creation
// and are read without a lock.
func (r *OrderRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.ExportOrder, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM export_orders WHERE id = $1 FOR UPDATE`, id,
	)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", mapPQError(err))
	}

	if err := r.attachLines(ctx, tx, []*domain.ExportOrder{o}); err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return o, nil
}

// UpdateStatus moves the order from one status to another. It fails with
// ErrVersionConflict when the stored status is no longer from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, from, to domain.OrderStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE export_orders SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", mapPQError(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, f domain.OrderFilter) ([]*domain.ExportOrder, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.AgencyID != nil {
		add("agency_id = $%d", *f.AgencyID)
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.From != nil {
		add("order_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("order_date <= $%d", *f.To)
	}

	query := `SELECT ` + orderColumns + ` FROM export_orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY order_date DESC, created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var orders []*domain.ExportOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}

	if err := r.attachLines(ctx, r.db, orders); err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return orders, nil
}

// DebtEntry is one order that contributed to an agency's debt.
type DebtEntry struct {
	OrderID     uuid.UUID
	OrderDate   time.Time
	Status      domain.OrderStatus
	TotalAmount int64
}

// ListDebtBearing returns the agency's orders in statuses that carry debt,
// newest first.
func (r *OrderRepository) ListDebtBearing(ctx context.Context, agencyID uuid.UUID) ([]DebtEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT o.id, o.order_date, o.status, COALESCE(SUM(l.quantity * l.unit_price), 0)::bigint
		FROM export_orders o
		LEFT JOIN export_order_lines l ON l.order_id = o.id
		WHERE o.agency_id = $1 AND o.status IN ('confirmed', 'shipping', 'completed')
		GROUP BY o.id
		ORDER BY o.order_date DESC, o.id`,
		agencyID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDebtBearing: %w", mapPQError(err))
	}
	defer rows.Close()

	var out []DebtEntry
	for rows.Next() {
		var e DebtEntry
		if err := rows.Scan(&e.OrderID, &e.OrderDate, &e.Status, &e.TotalAmount); err != nil {
			return nil, fmt.Errorf("ListDebtBearing: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDebtBearing: rows: %w", mapPQError(err))
	}
	return out, nil
}

// CountByStatus returns the number of orders in each status.
func (r *OrderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM export_orders GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("CountByStatus: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.OrderStatus]int)
	for rows.Next() {
		var (
			s domain.OrderStatus
			n int
		)
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("CountByStatus: scan: %w", err)
		}
		out[s] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CountByStatus: rows: %w", err)
	}
	return out, nil
}

// Queryer is satisfied by both *sql.DB and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *OrderRepository) attachLines(ctx context.Context, q Queryer, orders []*domain.ExportOrder) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.ExportOrder, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+orderLineColumns+` FROM export_order_lines
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, product_id, id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.ExportOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return fmt.Errorf("lines: scan: %w", err)
		}
		o := byID[l.OrderID]
		o.Lines = append(o.Lines, l)
	}
	return rows.Err()
}

func scanOrder(s scanner) (*domain.ExportOrder, error) {
	var o domain.ExportOrder
	err := s.Scan(
		&o.ID, &o.AgencyID, &o.OrderDate, &o.Status, &o.CreatedBy, &o.Note, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
