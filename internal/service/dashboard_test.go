package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/repository"
	"github.com/josh-kwaku/agency-ledger/internal/testutil"
)

func newDashboardService(t *testing.T) (*DashboardService, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewDashboardService(
		repository.NewAgencyRepository(db),
		repository.NewProductRepository(db),
		repository.NewOrderRepository(db),
		repository.NewReportRepository(db),
		db,
	), db
}

func TestOverview(t *testing.T) {
	svc, db := newDashboardService(t)

	active := testutil.SeedAgency(t, db, 1_000_000, 100_000)
	inactive := testutil.SeedAgency(t, db, 1_000_000, 50_000)
	testutil.DeactivateAgency(t, db, inactive.ID)

	plenty := testutil.SeedProduct(t, db, 1_000, 100)
	testutil.SeedProduct(t, db, 1_000, 3)
	testutil.SeedProduct(t, db, 1_000, 0)

	now := time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)
	testutil.SeedOrder(t, db, active.ID, now, domain.OrderStatusCompleted, plenty.ID, 2, 5_000)
	testutil.SeedOrder(t, db, inactive.ID, now, domain.OrderStatusCompleted, plenty.ID, 1, 5_000)
	testutil.SeedOrder(t, db, active.ID, now.AddDate(0, -1, 0), domain.OrderStatusCompleted, plenty.ID, 9, 5_000)
	testutil.SeedOrder(t, db, active.ID, now, domain.OrderStatusPending, plenty.ID, 1, 5_000)

	ov, err := svc.Overview(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, domain.Period{Month: 4, Year: 2026}, ov.Period)
	assert.Equal(t, 2, ov.Agencies.Total)
	assert.Equal(t, 1, ov.Agencies.Active)
	assert.Equal(t, int64(150_000), ov.Agencies.TotalDebt)
	assert.Equal(t, 3, ov.Products.Total)
	assert.Equal(t, 1, ov.Products.LowStock)
	assert.Equal(t, 1, ov.Products.OutOfStock)
	assert.Equal(t, 3, ov.OrdersByStatus[domain.OrderStatusCompleted])
	assert.Equal(t, 1, ov.OrdersByStatus[domain.OrderStatusPending])
	assert.Len(t, ov.OrdersByStatus, len(domain.OrderStatuses))
	assert.Equal(t, 0, ov.OrdersByStatus[domain.OrderStatusShipping])
	assert.Equal(t, int64(15_000), ov.MonthRevenue)
	assert.Equal(t, int64(2), ov.MonthOrderCount)
}

func TestTopDebtors(t *testing.T) {
	svc, db := newDashboardService(t)
	ctx := context.Background()

	low := testutil.SeedAgency(t, db, 1_000_000, 100_000)
	over := testutil.SeedAgency(t, db, 1_000_000, 1_200_000)
	mid := testutil.SeedAgency(t, db, 1_000_000, 600_000)
	gone := testutil.SeedAgency(t, db, 1_000_000, 5_000_000)
	testutil.DeactivateAgency(t, db, gone.ID)

	top, err := svc.TopDebtors(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, over.ID, top[0].ID)
	assert.Equal(t, mid.ID, top[1].ID)
	assert.Equal(t, low.ID, top[2].ID)
	assert.False(t, top[0].CanOrder())
	assert.Equal(t, int64(-200_000), top[0].RemainingLimit())
	assert.Equal(t, int64(400_000), top[1].RemainingLimit())

	two, err := svc.TopDebtors(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	for _, limit := range []int{-1, MaxTopDebtors + 1} {
		_, err := svc.TopDebtors(ctx, limit)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	}
}
