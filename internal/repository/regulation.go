package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

type RegulationRepository struct {
	db *sql.DB
}

func NewRegulationRepository(db *sql.DB) *RegulationRepository {
	return &RegulationRepository{db: db}
}

// GetActive returns the regulation with code if it exists and is active.
func (r *RegulationRepository) GetActive(ctx context.Context, code string) (*domain.Regulation, error) {
	var reg domain.Regulation
	err := r.db.QueryRowContext(ctx,
		`SELECT code, name, value, description, is_active, updated_at
		FROM regulations WHERE code = $1 AND is_active`, code,
	).Scan(&reg.Code, &reg.Name, &reg.Value, &reg.Description, &reg.IsActive, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetActive: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetActive: %w", err)
	}
	return &reg, nil
}

func (r *RegulationRepository) List(ctx context.Context) ([]domain.Regulation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, name, value, description, is_active, updated_at
		FROM regulations ORDER BY code`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var regs []domain.Regulation
	for rows.Next() {
		var reg domain.Regulation
		if err := rows.Scan(&reg.Code, &reg.Name, &reg.Value, &reg.Description, &reg.IsActive, &reg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return regs, nil
}

func (r *RegulationRepository) SetValue(ctx context.Context, code, value string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE regulations SET value = $1, updated_at = now() WHERE code = $2`, value, code,
	)
	if err != nil {
		return fmt.Errorf("SetValue: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetValue: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SetValue: %w", domain.ErrNotFound)
	}
	return nil
}
