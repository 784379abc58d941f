package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/service"
)

type fakeDashboardService struct {
	limit    int
	debtors  []*domain.Agency
	byStatus map[domain.OrderStatus]int
	err      error
}

func (f *fakeDashboardService) Overview(context.Context, time.Time) (*service.Overview, error) {
	return &service.Overview{}, f.err
}

func (f *fakeDashboardService) OrderStatusSummary(context.Context) (map[domain.OrderStatus]int, error) {
	return f.byStatus, f.err
}

func (f *fakeDashboardService) TopDebtors(_ context.Context, limit int) ([]*domain.Agency, error) {
	f.limit = limit
	return f.debtors, f.err
}

func TestDashboardHandler_TopDebtors(t *testing.T) {
	over := &domain.Agency{ID: uuid.New(), Name: "Over", CurrentDebt: 1_200_000, MaxDebt: 1_000_000}
	under := &domain.Agency{ID: uuid.New(), Name: "Under", CurrentDebt: 300_000, MaxDebt: 1_000_000}
	svc := &fakeDashboardService{debtors: []*domain.Agency{over, under}}
	h := NewDashboardHandler(svc, time.UTC)

	rec := httptest.NewRecorder()
	h.TopDebtors(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/top-debtors?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.limit)

	env := decodeEnvelope(t, rec)
	var dtos []debtorDTO
	require.NoError(t, json.Unmarshal(env.Data, &dtos))
	require.Len(t, dtos, 2)
	assert.Equal(t, over.ID, dtos[0].AgencyID)
	assert.True(t, dtos[0].OverLimit)
	assert.Equal(t, int64(-200_000), dtos[0].RemainingLimit)
	assert.False(t, dtos[1].OverLimit)
	assert.Equal(t, int64(700_000), dtos[1].RemainingLimit)
}

func TestDashboardHandler_TopDebtors_Limit(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{"default", "", http.StatusOK, 0},
		{"explicit", "?limit=25", http.StatusOK, 25},
		{"zero", "?limit=0", http.StatusBadRequest, 0},
		{"too large", "?limit=101", http.StatusBadRequest, 0},
		{"not a number", "?limit=ten", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeDashboardService{}
			h := NewDashboardHandler(svc, time.UTC)

			rec := httptest.NewRecorder()
			h.TopDebtors(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/top-debtors"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLimit, svc.limit)
		})
	}
}

func TestDashboardHandler_OrderStatus(t *testing.T) {
	svc := &fakeDashboardService{byStatus: map[domain.OrderStatus]int{
		domain.OrderStatusPending:   2,
		domain.OrderStatusCompleted: 7,
		domain.OrderStatusShipping:  0,
	}}
	h := NewDashboardHandler(svc, time.UTC)

	rec := httptest.NewRecorder()
	h.OrderStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/order-status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	var counts map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Equal(t, map[string]int{"pending": 2, "completed": 7, "shipping": 0}, counts)
}
