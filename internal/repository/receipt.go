package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

type ReceiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) Create(ctx context.Context, tx *sql.Tx, rc *domain.GoodsReceipt) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO goods_receipts (id, receipt_date, created_by, note, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rc.ID, rc.ReceiptDate, rc.CreatedBy, rc.Note, rc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapPQError(err))
	}

	for _, l := range rc.Lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO goods_receipt_lines (id, receipt_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			l.ID, l.ReceiptID, l.ProductID, l.Quantity, l.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("Create: line: %w", mapPQError(err))
		}
	}
	return nil
}

func (r *ReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.GoodsReceipt, error) {
	var rc domain.GoodsReceipt
	err := r.db.QueryRowContext(ctx,
		`SELECT id, receipt_date, created_by, note, created_at FROM goods_receipts WHERE id = $1`, id,
	).Scan(&rc.ID, &rc.ReceiptDate, &rc.CreatedBy, &rc.Note, &rc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, receipt_id, product_id, quantity, unit_price
		FROM goods_receipt_lines WHERE receipt_id = $1 ORDER BY product_id, id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByID: lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.GoodsReceiptLine
		if err := rows.Scan(&l.ID, &l.ReceiptID, &l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("GetByID: lines: scan: %w", err)
		}
		rc.Lines = append(rc.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByID: lines: %w", err)
	}
	return &rc, nil
}
