package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", fmt.Errorf("CreateOrder: %w", domain.ErrInvalidQuantity), http.StatusBadRequest, "INVALID_QUANTITY"},
		{"amount overflow", fmt.Errorf("CompletedTotals: %w", domain.ErrAmountOverflow), http.StatusUnprocessableEntity, "AMOUNT_OVERFLOW"},
		{"empty document", domain.ErrEmptyOrder, http.StatusBadRequest, "EMPTY_DOCUMENT"},
		{"invalid period", domain.ErrInvalidPeriod, http.StatusBadRequest, "INVALID_PERIOD"},
		{"credit exceeded", fmt.Errorf("CreateOrder: %w", domain.ErrCreditExceeded), http.StatusUnprocessableEntity, "CREDIT_LIMIT_EXCEEDED"},
		{"agency inactive", domain.ErrAgencyInactive, http.StatusUnprocessableEntity, "AGENCY_INACTIVE"},
		{"invalid transition", domain.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"amount exceeds debt", domain.ErrAmountExceedsDebt, http.StatusUnprocessableEntity, "AMOUNT_EXCEEDS_DEBT"},
		{"district full", domain.ErrDistrictFull, http.StatusUnprocessableEntity, "DISTRICT_FULL"},
		{"not found", fmt.Errorf("GetOrder: %w", domain.ErrNotFound), http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"version conflict", domain.ErrVersionConflict, http.StatusConflict, "VERSION_CONFLICT"},
		{"serialization conflict", domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondDomainError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestRespondDomainError_StockShortageDetails(t *testing.T) {
	productID := uuid.New()
	err := fmt.Errorf("CreateOrder: %w", &domain.StockShortageError{ProductID: productID, Requested: 60, Available: 50})

	rec := httptest.NewRecorder()
	RespondDomainError(rec, err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Error.Code)

	var detail stockShortageDetail
	require.NoError(t, json.Unmarshal(env.Error.Details, &detail))
	assert.Equal(t, productID.String(), detail.ProductID)
	assert.Equal(t, int64(60), detail.Requested)
	assert.Equal(t, int64(50), detail.Available)
}

func TestValidateStruct_FieldPaths(t *testing.T) {
	req := createOrderRequest{
		AgencyID:  "not-a-uuid",
		OrderDate: "14/10/2026",
		Lines:     []orderLineRequest{{ProductID: uuid.NewString(), Quantity: 0}},
	}

	fields := req.Validate()

	byField := make(map[string]string, len(fields))
	for _, f := range fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "must be a valid UUID", byField["agency_id"])
	assert.Equal(t, "must be a date in YYYY-MM-DD format", byField["order_date"])
	assert.Equal(t, "must be greater than 0", byField["lines[0].quantity"])
}

func TestValidateStruct_LineBounds(t *testing.T) {
	req := receiveGoodsRequest{
		Lines: []receiptLineRequest{
			{ProductID: uuid.NewString(), Quantity: 1_000_000_000, UnitPrice: 1_000_000_000},
			{ProductID: uuid.NewString(), Quantity: 4611686018427387654, UnitPrice: 4_000_000_000},
		},
	}

	fields := req.Validate()

	byField := make(map[string]string, len(fields))
	for _, f := range fields {
		byField[f.Field] = f.Message
	}
	require.Len(t, fields, 2)
	assert.Equal(t, "must be at most 1000000000", byField["lines[1].quantity"])
	assert.Equal(t, "must be at most 1000000000", byField["lines[1].unit_price"])
}

func TestValidateStruct_EmptyLines(t *testing.T) {
	req := createOrderRequest{AgencyID: uuid.NewString()}

	fields := req.Validate()

	require.Len(t, fields, 1)
	assert.Equal(t, "lines", fields[0].Field)
}
