package report

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/repository"
)

type reportRepo interface {
	LockPeriod(ctx context.Context, conn *sql.Conn, p domain.Period) error
	UnlockPeriod(ctx context.Context, conn *sql.Conn, p domain.Period) error
	DeletePeriod(ctx context.Context, tx *sql.Tx, p domain.Period) error
	CompletedTotals(ctx context.Context, q repository.Queryer, start, end time.Time) (map[uuid.UUID]repository.OrderTotals, error)
	PaymentTotals(ctx context.Context, q repository.Queryer, start, end time.Time) (map[uuid.UUID]int64, error)
	ClosingDebts(ctx context.Context, q repository.Queryer, p domain.Period) (map[uuid.UUID]int64, error)
	InsertRevenue(ctx context.Context, tx *sql.Tx, reports []domain.RevenueReport) error
	InsertDebt(ctx context.Context, tx *sql.Tx, reports []domain.DebtReport) error
	UpsertClose(ctx context.Context, tx *sql.Tx, pc *domain.PeriodClose) error
	ListRevenue(ctx context.Context, p domain.Period) ([]domain.RevenueReport, error)
	ListDebt(ctx context.Context, p domain.Period) ([]domain.DebtReport, error)
	GetClose(ctx context.Context, p domain.Period) (*domain.PeriodClose, error)
}

type agencyRepo interface {
	ListActiveIDs(ctx context.Context, tx *sql.Tx) ([]uuid.UUID, error)
}

// Closer rebuilds the monthly revenue and debt snapshots.
type Closer struct {
	reports  reportRepo
	agencies agencyRepo
	db       *sql.DB
	now      func() time.Time
}

func NewCloser(reports reportRepo, agencies agencyRepo, db *sql.DB) *Closer {
	return &Closer{reports: reports, agencies: agencies, db: db, now: time.Now}
}

// GenerateReports replaces every report row for p with rows recomputed from
// order and payment history. Closers for the same period run one at a time;
// each reads a single snapshot of the history.
func (c *Closer) GenerateReports(ctx context.Context, p domain.Period, actor uuid.UUID) (*Result, error) {
	log := logging.FromContext(ctx)

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("GenerateReports: %w", err)
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("GenerateReports: conn: %w", err)
	}
	defer conn.Close()

	if err := c.reports.LockPeriod(ctx, conn, p); err != nil {
		return nil, fmt.Errorf("GenerateReports: %w", err)
	}
	defer c.unlock(ctx, conn, p)

	res, err := c.generate(ctx, conn, p, actor)
	if err != nil {
		return nil, fmt.Errorf("GenerateReports: %w", err)
	}

	log.Info("period closed",
		"period", p.String(),
		"agencies", len(res.Revenue),
		"company_revenue", res.CompanyRevenue,
		"actor", actor,
	)

	return res, nil
}

func (c *Closer) generate(ctx context.Context, conn *sql.Conn, p domain.Period, actor uuid.UUID) (*Result, error) {
	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("generate: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := c.reports.DeletePeriod(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	in, err := c.loadInput(ctx, tx, p)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	res := Compile(*in)

	if err := c.reports.InsertRevenue(ctx, tx, res.Revenue); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if err := c.reports.InsertDebt(ctx, tx, res.Debt); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	res.GeneratedBy = actor
	res.GeneratedAt = c.now().UTC()
	if err := c.reports.UpsertClose(ctx, tx, &domain.PeriodClose{
		Month:          p.Month,
		Year:           p.Year,
		CompanyRevenue: res.CompanyRevenue,
		AgencyCount:    len(res.Revenue),
		GeneratedBy:    actor,
		GeneratedAt:    res.GeneratedAt,
	}); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	if err := repository.Commit(tx); err != nil {
		return nil, fmt.Errorf("generate: commit: %w", err)
	}
	return res, nil
}

func (c *Closer) loadInput(ctx context.Context, tx *sql.Tx, p domain.Period) (*Input, error) {
	start, end := p.Bounds()

	active, err := c.agencies.ListActiveIDs(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("loadInput: %w", err)
	}
	completed, err := c.reports.CompletedTotals(ctx, tx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loadInput: %w", err)
	}
	payments, err := c.reports.PaymentTotals(ctx, tx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loadInput: %w", err)
	}
	prior, err := c.reports.ClosingDebts(ctx, tx, p.Prev())
	if err != nil {
		return nil, fmt.Errorf("loadInput: %w", err)
	}

	return &Input{
		Period:         p,
		ActiveAgencies: active,
		Completed:      completed,
		Payments:       payments,
		PriorClosing:   prior,
	}, nil
}

// unlock releases the period lock even if ctx is already cancelled. A conn
// that cannot prove it released the lock is discarded instead of pooled.
func (c *Closer) unlock(ctx context.Context, conn *sql.Conn, p domain.Period) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := c.reports.UnlockPeriod(ctx, conn, p); err != nil {
		logging.FromContext(ctx).Error("release period lock", "period", p.String(), "error", err)
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	}
}

// ListReports returns the stored snapshot for p. Periods never closed yield
// empty slices and a zero GeneratedAt.
func (c *Closer) ListReports(ctx context.Context, p domain.Period) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("ListReports: %w", err)
	}

	revenue, err := c.reports.ListRevenue(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("ListReports: %w", err)
	}
	debt, err := c.reports.ListDebt(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("ListReports: %w", err)
	}

	res := &Result{Period: p, Revenue: revenue, Debt: debt}
	pc, err := c.reports.GetClose(ctx, p)
	switch {
	case err == nil:
		res.CompanyRevenue = pc.CompanyRevenue
		res.GeneratedBy = pc.GeneratedBy
		res.GeneratedAt = pc.GeneratedAt
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("ListReports: %w", err)
	}
	return res, nil
}
