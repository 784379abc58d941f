package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/auth"
	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/service/payment"
)

type paymentService interface {
	RecordPayment(ctx context.Context, req payment.RecordPaymentRequest) (*domain.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
}

type PaymentHandler struct {
	payments paymentService
}

func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type recordPaymentRequest struct {
	AgencyID    string  `json:"agency_id" validate:"required,uuid"`
	PaymentDate string  `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	Amount      int64   `json:"amount" validate:"gt=0"`
	Note        *string `json:"note" validate:"omitempty,max=1000"`
}

func (r recordPaymentRequest) Validate() []FieldError {
	return validateStruct(r)
}

type paymentDTO struct {
	ID          uuid.UUID `json:"id"`
	AgencyID    uuid.UUID `json:"agency_id"`
	PaymentDate string    `json:"payment_date"`
	Amount      int64     `json:"amount"`
	ReceivedBy  uuid.UUID `json:"received_by"`
	Note        *string   `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPaymentDTO(p *domain.Payment) paymentDTO {
	return paymentDTO{
		ID:          p.ID,
		AgencyID:    p.AgencyID,
		PaymentDate: formatDate(p.PaymentDate),
		Amount:      p.Amount,
		ReceivedBy:  p.ReceivedBy,
		Note:        p.Note,
		CreatedAt:   p.CreatedAt,
	}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req recordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "payment_date", Message: "must be a date in YYYY-MM-DD format"}})
		return
	}

	p, err := h.payments.RecordPayment(r.Context(), payment.RecordPaymentRequest{
		AgencyID:    uuid.MustParse(req.AgencyID),
		PaymentDate: paymentDate,
		Amount:      req.Amount,
		Note:        req.Note,
		ReceivedBy:  actor.ID,
	})
	if err != nil {
		log.Warn("payment recording failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/payments/%s", p.ID))
	RespondSuccess(w, http.StatusCreated, toPaymentDTO(p))
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	p, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPaymentDTO(p))
}
