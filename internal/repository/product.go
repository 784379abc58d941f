package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

const productColumns = `id, name, unit_id, price, stock_quantity, description,
	is_active, version, created_at, updated_at`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Product, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: product %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", mapPQError(err))
	}
	return p, nil
}

func (r *ProductRepository) UpdateStock(ctx context.Context, tx *sql.Tx, id uuid.UUID, newStock int64, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock_quantity = $1, version = $2, updated_at = now()
		WHERE id = $3 AND version = $4`,
		newStock, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateStock: %w", mapPQError(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStock: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStock: %w", domain.ErrVersionConflict)
	}
	return nil
}

// StockSummary counts active products by stock level.
type StockSummary struct {
	Total      int
	LowStock   int
	OutOfStock int
}

func (r *ProductRepository) Summary(ctx context.Context) (*StockSummary, error) {
	var s StockSummary
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE stock_quantity > 0 AND stock_quantity < $1),
			COUNT(*) FILTER (WHERE stock_quantity = 0)
		FROM products WHERE is_active`,
		domain.LowStockThreshold,
	).Scan(&s.Total, &s.LowStock, &s.OutOfStock)
	if err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}
	return &s, nil
}

func scanProduct(s scanner) (*domain.Product, error) {
	var p domain.Product
	err := s.Scan(
		&p.ID, &p.Name, &p.UnitID, &p.Price, &p.StockQuantity, &p.Description,
		&p.IsActive, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
