package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

const agencyColumns = `a.id, a.user_id, a.name, a.phone, a.email, a.address,
	a.agency_type_id, a.district_id, a.current_debt, a.reception_date,
	a.is_active, a.version, a.created_at, a.updated_at, t.max_debt`

const agencyFrom = ` FROM agencies a JOIN agency_types t ON t.id = a.agency_type_id`

type AgencyRepository struct {
	db *sql.DB
}

func NewAgencyRepository(db *sql.DB) *AgencyRepository {
	return &AgencyRepository{db: db}
}

func (r *AgencyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agency, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+agencyColumns+agencyFrom+` WHERE a.id = $1`, id,
	)
	a, err := scanAgency(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

// GetForUpdate locks the agency row (not its type) for the rest of tx.
func (r *AgencyRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Agency, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+agencyColumns+agencyFrom+` WHERE a.id = $1 FOR UPDATE OF a`, id,
	)
	a, err := scanAgency(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", mapPQError(err))
	}
	return a, nil
}

func (r *AgencyRepository) UpdateDebt(ctx context.Context, tx *sql.Tx, id uuid.UUID, newDebt int64, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE agencies SET current_debt = $1, version = $2, updated_at = now()
		WHERE id = $3 AND version = $4`,
		newDebt, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateDebt: %w", mapPQError(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateDebt: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateDebt: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *AgencyRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.Agency) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO agencies (
			id, user_id, name, phone, email, address, agency_type_id, district_id,
			current_debt, reception_date, is_active, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.UserID, a.Name, a.Phone, a.Email, a.Address, a.AgencyTypeID, a.DistrictID,
		a.CurrentDebt, a.ReceptionDate, a.IsActive, a.Version, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", mapPQError(err))
	}
	return nil
}

// LockDistrict serialises agency registration within one district until tx ends.
func (r *AgencyRepository) LockDistrict(ctx context.Context, tx *sql.Tx, districtID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, "district:"+districtID.String(),
	)
	if err != nil {
		return fmt.Errorf("LockDistrict: %w", mapPQError(err))
	}
	return nil
}

func (r *AgencyRepository) CountByDistrict(ctx context.Context, tx *sql.Tx, districtID uuid.UUID) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM agencies WHERE district_id = $1`, districtID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountByDistrict: %w", err)
	}
	return n, nil
}

// ListActiveIDs returns active agency ids in ascending order.
func (r *AgencyRepository) ListActiveIDs(ctx context.Context, tx *sql.Tx) ([]uuid.UUID, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM agencies WHERE is_active ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListActiveIDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListActiveIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActiveIDs: rows: %w", err)
	}
	return ids, nil
}

// TopDebtors returns up to limit active agencies, highest debt first.
func (r *AgencyRepository) TopDebtors(ctx context.Context, limit int) ([]*domain.Agency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+agencyColumns+agencyFrom+`
		WHERE a.is_active
		ORDER BY a.current_debt DESC, a.id
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("TopDebtors: %w", err)
	}
	defer rows.Close()

	var out []*domain.Agency
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, fmt.Errorf("TopDebtors: scan: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("TopDebtors: rows: %w", err)
	}
	return out, nil
}

func scanAgency(s scanner) (*domain.Agency, error) {
	var a domain.Agency
	var userID uuid.NullUUID
	err := s.Scan(
		&a.ID, &userID, &a.Name, &a.Phone, &a.Email, &a.Address,
		&a.AgencyTypeID, &a.DistrictID, &a.CurrentDebt, &a.ReceptionDate,
		&a.IsActive, &a.Version, &a.CreatedAt, &a.UpdatedAt, &a.MaxDebt,
	)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		a.UserID = &userID.UUID
	}
	return &a, nil
}

// AgencySummary aggregates the agency table for the dashboard.
type AgencySummary struct {
	Total     int
	Active    int
	TotalDebt int64
}

func (r *AgencyRepository) Summary(ctx context.Context) (*AgencySummary, error) {
	var s AgencySummary
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active), COALESCE(SUM(current_debt), 0)
		FROM agencies`,
	).Scan(&s.Total, &s.Active, &s.TotalDebt)
	if err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}
	return &s, nil
}
