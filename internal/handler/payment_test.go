package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/service/payment"
)

type fakePaymentService struct {
	recorded *payment.RecordPaymentRequest
	err      error
}

func (f *fakePaymentService) RecordPayment(_ context.Context, req payment.RecordPaymentRequest) (*domain.Payment, error) {
	f.recorded = &req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Payment{ID: uuid.New(), AgencyID: req.AgencyID, PaymentDate: req.PaymentDate, Amount: req.Amount, ReceivedBy: req.ReceivedBy}, nil
}

func (f *fakePaymentService) GetPayment(context.Context, uuid.UUID) (*domain.Payment, error) {
	return nil, domain.ErrNotFound
}

func TestPaymentHandler_Create(t *testing.T) {
	agencyID := uuid.New()
	svc := &fakePaymentService{}
	h := NewPaymentHandler(svc)

	body := `{"agency_id":"` + agencyID.String() + `","amount":200000}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body)))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.recorded)
	assert.Equal(t, int64(200_000), svc.recorded.Amount)
	assert.Equal(t, testActor.ID, svc.recorded.ReceivedBy)
	assert.True(t, svc.recorded.PaymentDate.Equal(time.Time{}))
}

func TestPaymentHandler_Create_Rejections(t *testing.T) {
	agencyID := uuid.NewString()
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"zero amount", `{"agency_id":"` + agencyID + `","amount":0}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing agency", `{"amount":100}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"exceeds debt", `{"agency_id":"` + agencyID + `","amount":400000}`, domain.ErrAmountExceedsDebt, http.StatusUnprocessableEntity, "AMOUNT_EXCEEDS_DEBT"},
		{"future date", `{"agency_id":"` + agencyID + `","amount":1,"payment_date":"2099-01-01"}`, domain.ErrFutureDate, http.StatusUnprocessableEntity, "FUTURE_DATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPaymentHandler(&fakePaymentService{err: tt.svcErr})
			req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(tt.body)))
			rec := httptest.NewRecorder()

			h.Create(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestPaymentHandler_Get_NotFound(t *testing.T) {
	h := NewPaymentHandler(&fakePaymentService{})
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+id, nil)
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
