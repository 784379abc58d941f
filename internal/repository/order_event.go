package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

type OrderEventRepository struct {
	db *sql.DB
}

func NewOrderEventRepository(db *sql.DB) *OrderEventRepository {
	return &OrderEventRepository{db: db}
}

func (r *OrderEventRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.OrderStatusEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO order_events (id, order_id, event, from_status, to_status, actor, debt_written_off, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.OrderID, e.Event, e.FromStatus, e.ToStatus, e.Actor, e.DebtWrittenOff, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapPQError(err))
	}
	return nil
}

func (r *OrderEventRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.OrderStatusEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, event, from_status, to_status, actor, debt_written_off, created_at
		FROM order_events WHERE order_id = $1 ORDER BY created_at, id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByOrderID: %w", err)
	}
	defer rows.Close()

	var events []domain.OrderStatusEvent
	for rows.Next() {
		var (
			e    domain.OrderStatusEvent
			from sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Event, &from, &e.ToStatus, &e.Actor, &e.DebtWrittenOff, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListByOrderID: scan: %w", err)
		}
		if from.Valid {
			s := domain.OrderStatus(from.String)
			e.FromStatus = &s
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByOrderID: rows: %w", err)
	}
	return events, nil
}
