package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/export"
	"github.com/josh-kwaku/agency-ledger/internal/service/report"
)

type fakeReportService struct {
	period domain.Period
	actor  uuid.UUID
	result *report.Result
	err    error
}

func (f *fakeReportService) GenerateReports(_ context.Context, p domain.Period, actor uuid.UUID) (*report.Result, error) {
	f.period, f.actor = p, actor
	return f.result, f.err
}

func (f *fakeReportService) ListReports(_ context.Context, p domain.Period) (*report.Result, error) {
	f.period = p
	return f.result, f.err
}

func sampleResult() *report.Result {
	agencyID := uuid.New()
	return &report.Result{
		Period:         domain.Period{Month: 2, Year: 2026},
		CompanyRevenue: 200_000,
		Revenue: []domain.RevenueReport{
			{AgencyID: agencyID, Month: 2, Year: 2026, OrderCount: 1, TotalRevenue: 200_000, Ratio: decimal.RequireFromString("100.00")},
		},
		Debt: []domain.DebtReport{
			{AgencyID: agencyID, Month: 2, Year: 2026, Incurred: 200_000, ClosingDebt: 200_000},
		},
		GeneratedBy: testActor.ID,
		GeneratedAt: time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC),
	}
}

func TestReportHandler_Generate(t *testing.T) {
	svc := &fakeReportService{result: sampleResult()}
	h := NewReportHandler(svc)

	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/reports/generate", strings.NewReader(`{"month":2,"year":2026}`)))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Period{Month: 2, Year: 2026}, svc.period)
	assert.Equal(t, testActor.ID, svc.actor)

	env := decodeEnvelope(t, rec)
	var dto reportsDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Equal(t, int64(200_000), dto.CompanyRevenue)
	require.Len(t, dto.Revenue, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(dto.Revenue[0].Ratio))
	require.NotNil(t, dto.GeneratedAt)
}

func TestReportHandler_Generate_InvalidMonth(t *testing.T) {
	h := NewReportHandler(&fakeReportService{})
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/reports/generate", strings.NewReader(`{"month":13,"year":2026}`)))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestReportHandler_List_NeverClosed(t *testing.T) {
	svc := &fakeReportService{result: &report.Result{Period: domain.Period{Month: 4, Year: 2026}}}
	h := NewReportHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?month=4&year=2026", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	var dto reportsDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Empty(t, dto.Revenue)
	assert.Nil(t, dto.GeneratedAt)
}

func TestReportHandler_List_MissingQuery(t *testing.T) {
	h := NewReportHandler(&fakeReportService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?month=4", nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportHandler_Export(t *testing.T) {
	res := sampleResult()
	h := NewReportHandler(&fakeReportService{result: res})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/export?month=2&year=2026", nil)
	rec := httptest.NewRecorder()

	h.Export(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "reports-2026-02.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.DebtSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, res.Debt[0].AgencyID.String(), rows[1][0])
}

func TestReportHandler_Export_ServiceError(t *testing.T) {
	h := NewReportHandler(&fakeReportService{err: domain.ErrInvalidPeriod})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/export?month=0&year=2026", nil)
	rec := httptest.NewRecorder()

	h.Export(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "INVALID_PERIOD", env.Error.Code)
}
