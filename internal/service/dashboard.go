package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/repository"
)

type agencySummaryRepo interface {
	Summary(ctx context.Context) (*repository.AgencySummary, error)
	TopDebtors(ctx context.Context, limit int) ([]*domain.Agency, error)
}

type stockSummaryRepo interface {
	Summary(ctx context.Context) (*repository.StockSummary, error)
}

type orderCountRepo interface {
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
}

type revenueRepo interface {
	CompletedTotals(ctx context.Context, q repository.Queryer, start, end time.Time) (map[uuid.UUID]repository.OrderTotals, error)
}

type DashboardService struct {
	agencies agencySummaryRepo
	products stockSummaryRepo
	orders   orderCountRepo
	revenue  revenueRepo
	db       repository.Queryer
}

func NewDashboardService(agencies agencySummaryRepo, products stockSummaryRepo, orders orderCountRepo, revenue revenueRepo, db repository.Queryer) *DashboardService {
	return &DashboardService{agencies: agencies, products: products, orders: orders, revenue: revenue, db: db}
}

type Overview struct {
	Period          domain.Period
	Agencies        repository.AgencySummary
	Products        repository.StockSummary
	OrdersByStatus  map[domain.OrderStatus]int
	MonthRevenue    int64
	MonthOrderCount int64
}

// Overview summarises the ledger as of now. Month figures cover completed
// orders dated in now's calendar month.
func (s *DashboardService) Overview(ctx context.Context, now time.Time) (*Overview, error) {
	agencies, err := s.agencies.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("Overview: %w", err)
	}
	products, err := s.products.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("Overview: %w", err)
	}
	byStatus, err := s.OrderStatusSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("Overview: %w", err)
	}

	period := domain.PeriodOf(now)
	start, end := period.Bounds()
	totals, err := s.revenue.CompletedTotals(ctx, s.db, start, end)
	if err != nil {
		return nil, fmt.Errorf("Overview: %w", err)
	}

	ov := &Overview{
		Period:         period,
		Agencies:       *agencies,
		Products:       *products,
		OrdersByStatus: byStatus,
	}
	for _, t := range totals {
		ov.MonthRevenue += t.Amount
		ov.MonthOrderCount += t.Count
	}
	return ov, nil
}

// OrderStatusSummary counts orders per status. Every status is present, with
// zero when no order holds it.
func (s *DashboardService) OrderStatusSummary(ctx context.Context) (map[domain.OrderStatus]int, error) {
	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("OrderStatusSummary: %w", err)
	}
	out := make(map[domain.OrderStatus]int, len(domain.OrderStatuses))
	for _, st := range domain.OrderStatuses {
		out[st] = counts[st]
	}
	return out, nil
}

const (
	DefaultTopDebtors = 10
	MaxTopDebtors     = 100
)

// TopDebtors returns the active agencies carrying the most debt. A limit of
// zero means DefaultTopDebtors.
func (s *DashboardService) TopDebtors(ctx context.Context, limit int) ([]*domain.Agency, error) {
	if limit == 0 {
		limit = DefaultTopDebtors
	}
	if limit < 0 || limit > MaxTopDebtors {
		return nil, fmt.Errorf("TopDebtors: limit %d: %w", limit, domain.ErrInvalidRequest)
	}
	agencies, err := s.agencies.TopDebtors(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("TopDebtors: %w", err)
	}
	return agencies, nil
}
