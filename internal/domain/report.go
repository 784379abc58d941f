package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period is a calendar month.
type Period struct {
	Month int
	Year  int
}

func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("month %d: %w", p.Month, ErrInvalidPeriod)
	}
	if p.Year < 1970 || p.Year > 9999 {
		return fmt.Errorf("year %d: %w", p.Year, ErrInvalidPeriod)
	}
	return nil
}

func (p Period) Prev() Period {
	if p.Month == 1 {
		return Period{Month: 12, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}

// Bounds returns [start, end) of the month in UTC.
func (p Period) Bounds() (time.Time, time.Time) {
	start := time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Key is a stable integer identifying the period, used for advisory locks.
func (p Period) Key() int64 {
	return int64(p.Year)*100 + int64(p.Month)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

type RevenueReport struct {
	AgencyID     uuid.UUID
	Month        int
	Year         int
	OrderCount   int64
	TotalRevenue int64
	Ratio        decimal.Decimal
}

type DebtReport struct {
	AgencyID    uuid.UUID
	Month       int
	Year        int
	OpeningDebt int64
	Incurred    int64
	Paid        int64
	ClosingDebt int64
}

// PeriodClose records the most recent run of the closer for a period.
type PeriodClose struct {
	Month          int
	Year           int
	CompanyRevenue int64
	AgencyCount    int
	GeneratedBy    uuid.UUID
	GeneratedAt    time.Time
}
