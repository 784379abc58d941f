package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// OrderTotals aggregates one agency's completed orders over a window.
type OrderTotals struct {
	Count  int64
	Amount int64
}

// LockPeriod blocks until no other session holds the period's advisory lock.
// The lock is session scoped so it can be taken before a snapshot
// transaction starts on the same conn.
func (r *ReportRepository) LockPeriod(ctx context.Context, conn *sql.Conn, p domain.Period) error {
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, p.Key()); err != nil {
		return fmt.Errorf("LockPeriod: %w", mapPQError(err))
	}
	return nil
}

func (r *ReportRepository) UnlockPeriod(ctx context.Context, conn *sql.Conn, p domain.Period) error {
	var released bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_advisory_unlock($1)`, p.Key()).Scan(&released); err != nil {
		return fmt.Errorf("UnlockPeriod: %w", err)
	}
	if !released {
		return fmt.Errorf("UnlockPeriod: period %s was not locked by this session", p)
	}
	return nil
}

func (r *ReportRepository) DeletePeriod(ctx context.Context, tx *sql.Tx, p domain.Period) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM revenue_reports WHERE month = $1 AND year = $2`, p.Month, p.Year,
	); err != nil {
		return fmt.Errorf("DeletePeriod: revenue: %w", mapPQError(err))
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM debt_reports WHERE month = $1 AND year = $2`, p.Month, p.Year,
	); err != nil {
		return fmt.Errorf("DeletePeriod: debt: %w", mapPQError(err))
	}
	return nil
}

// CompletedTotals sums completed orders dated in [start, end) per agency,
// active or not.
func (r *ReportRepository) CompletedTotals(ctx context.Context, q Queryer, start, end time.Time) (map[uuid.UUID]OrderTotals, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT o.agency_id, COUNT(DISTINCT o.id), COALESCE(SUM(l.quantity * l.unit_price), 0)::bigint
		FROM export_orders o
		JOIN export_order_lines l ON l.order_id = o.id
		WHERE o.status = 'completed' AND o.order_date >= $1::date AND o.order_date < $2::date
		GROUP BY o.agency_id`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("CompletedTotals: %w", mapPQError(err))
	}
	defer rows.Close()

	out := make(map[uuid.UUID]OrderTotals)
	for rows.Next() {
		var (
			id uuid.UUID
			t  OrderTotals
		)
		if err := rows.Scan(&id, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("CompletedTotals: scan: %w", err)
		}
		out[id] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CompletedTotals: rows: %w", mapPQError(err))
	}
	return out, nil
}

// PaymentTotals sums payments dated in [start, end) per agency.
func (r *ReportRepository) PaymentTotals(ctx context.Context, q Queryer, start, end time.Time) (map[uuid.UUID]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT agency_id, SUM(amount)::bigint FROM payments
		WHERE payment_date >= $1::date AND payment_date < $2::date
		GROUP BY agency_id`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("PaymentTotals: %w", mapPQError(err))
	}
	return scanAmounts(rows, "PaymentTotals")
}

// ClosingDebts returns each agency's closing debt for p, if a report exists.
func (r *ReportRepository) ClosingDebts(ctx context.Context, q Queryer, p domain.Period) (map[uuid.UUID]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT agency_id, closing_debt FROM debt_reports WHERE month = $1 AND year = $2`,
		p.Month, p.Year,
	)
	if err != nil {
		return nil, fmt.Errorf("ClosingDebts: %w", mapPQError(err))
	}
	return scanAmounts(rows, "ClosingDebts")
}

func scanAmounts(rows *sql.Rows, op string) (map[uuid.UUID]int64, error) {
	defer rows.Close()

	out := make(map[uuid.UUID]int64)
	for rows.Next() {
		var (
			id     uuid.UUID
			amount int64
		)
		if err := rows.Scan(&id, &amount); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out[id] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, mapPQError(err))
	}
	return out, nil
}

func (r *ReportRepository) InsertRevenue(ctx context.Context, tx *sql.Tx, reports []domain.RevenueReport) error {
	for _, rr := range reports {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO revenue_reports (agency_id, month, year, order_count, total_revenue, ratio)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			rr.AgencyID, rr.Month, rr.Year, rr.OrderCount, rr.TotalRevenue, rr.Ratio,
		)
		if err != nil {
			return fmt.Errorf("InsertRevenue: %w", mapPQError(err))
		}
	}
	return nil
}

func (r *ReportRepository) InsertDebt(ctx context.Context, tx *sql.Tx, reports []domain.DebtReport) error {
	for _, dr := range reports {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO debt_reports (agency_id, month, year, opening_debt, incurred, paid, closing_debt)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			dr.AgencyID, dr.Month, dr.Year, dr.OpeningDebt, dr.Incurred, dr.Paid, dr.ClosingDebt,
		)
		if err != nil {
			return fmt.Errorf("InsertDebt: %w", mapPQError(err))
		}
	}
	return nil
}

func (r *ReportRepository) UpsertClose(ctx context.Context, tx *sql.Tx, pc *domain.PeriodClose) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO period_closes (month, year, company_revenue, agency_count, generated_by, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (month, year) DO UPDATE SET
			company_revenue = EXCLUDED.company_revenue,
			agency_count = EXCLUDED.agency_count,
			generated_by = EXCLUDED.generated_by,
			generated_at = EXCLUDED.generated_at`,
		pc.Month, pc.Year, pc.CompanyRevenue, pc.AgencyCount, pc.GeneratedBy, pc.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("UpsertClose: %w", mapPQError(err))
	}
	return nil
}

func (r *ReportRepository) ListRevenue(ctx context.Context, p domain.Period) ([]domain.RevenueReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT agency_id, month, year, order_count, total_revenue, ratio
		FROM revenue_reports WHERE month = $1 AND year = $2 ORDER BY agency_id`,
		p.Month, p.Year,
	)
	if err != nil {
		return nil, fmt.Errorf("ListRevenue: %w", err)
	}
	defer rows.Close()

	var out []domain.RevenueReport
	for rows.Next() {
		var rr domain.RevenueReport
		if err := rows.Scan(&rr.AgencyID, &rr.Month, &rr.Year, &rr.OrderCount, &rr.TotalRevenue, &rr.Ratio); err != nil {
			return nil, fmt.Errorf("ListRevenue: scan: %w", err)
		}
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListRevenue: rows: %w", err)
	}
	return out, nil
}

func (r *ReportRepository) ListDebt(ctx context.Context, p domain.Period) ([]domain.DebtReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT agency_id, month, year, opening_debt, incurred, paid, closing_debt
		FROM debt_reports WHERE month = $1 AND year = $2 ORDER BY agency_id`,
		p.Month, p.Year,
	)
	if err != nil {
		return nil, fmt.Errorf("ListDebt: %w", err)
	}
	defer rows.Close()

	var out []domain.DebtReport
	for rows.Next() {
		var dr domain.DebtReport
		if err := rows.Scan(&dr.AgencyID, &dr.Month, &dr.Year, &dr.OpeningDebt, &dr.Incurred, &dr.Paid, &dr.ClosingDebt); err != nil {
			return nil, fmt.Errorf("ListDebt: scan: %w", err)
		}
		out = append(out, dr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListDebt: rows: %w", err)
	}
	return out, nil
}

func (r *ReportRepository) GetClose(ctx context.Context, p domain.Period) (*domain.PeriodClose, error) {
	var pc domain.PeriodClose
	err := r.db.QueryRowContext(ctx,
		`SELECT month, year, company_revenue, agency_count, generated_by, generated_at
		FROM period_closes WHERE month = $1 AND year = $2`,
		p.Month, p.Year,
	).Scan(&pc.Month, &pc.Year, &pc.CompanyRevenue, &pc.AgencyCount, &pc.GeneratedBy, &pc.GeneratedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetClose: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetClose: %w", err)
	}
	return &pc, nil
}
