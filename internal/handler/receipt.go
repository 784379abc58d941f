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
	"github.com/josh-kwaku/agency-ledger/internal/service/receipt"
)

type receiptService interface {
	ReceiveGoods(ctx context.Context, req receipt.ReceiveGoodsRequest) (*domain.GoodsReceipt, error)
	GetReceipt(ctx context.Context, id uuid.UUID) (*domain.GoodsReceipt, error)
}

type ReceiptHandler struct {
	receipts receiptService
}

func NewReceiptHandler(receipts receiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

type receiptLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"gt=0,lte=1000000000"`
	UnitPrice int64  `json:"unit_price" validate:"gt=0,lte=1000000000"`
}

type receiveGoodsRequest struct {
	ReceiptDate string               `json:"receipt_date" validate:"omitempty,datetime=2006-01-02"`
	Note        *string              `json:"note" validate:"omitempty,max=1000"`
	Lines       []receiptLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (r receiveGoodsRequest) Validate() []FieldError {
	return validateStruct(r)
}

type receiptLineDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	Total     int64     `json:"total"`
}

type receiptDTO struct {
	ID          uuid.UUID        `json:"id"`
	ReceiptDate string           `json:"receipt_date"`
	CreatedBy   uuid.UUID        `json:"created_by"`
	Note        *string          `json:"note,omitempty"`
	TotalAmount int64            `json:"total_amount"`
	Lines       []receiptLineDTO `json:"lines"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toReceiptDTO(rc *domain.GoodsReceipt) receiptDTO {
	dto := receiptDTO{
		ID:          rc.ID,
		ReceiptDate: formatDate(rc.ReceiptDate),
		CreatedBy:   rc.CreatedBy,
		Note:        rc.Note,
		TotalAmount: rc.TotalAmount(),
		Lines:       make([]receiptLineDTO, 0, len(rc.Lines)),
		CreatedAt:   rc.CreatedAt,
	}
	for _, l := range rc.Lines {
		dto.Lines = append(dto.Lines, receiptLineDTO{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total(),
		})
	}
	return dto
}

func (h *ReceiptHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req receiveGoodsRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	receiptDate, err := parseDate(req.ReceiptDate)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "receipt_date", Message: "must be a date in YYYY-MM-DD format"}})
		return
	}

	lines := make([]receipt.LineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, receipt.LineRequest{
			ProductID: uuid.MustParse(l.ProductID),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	rc, err := h.receipts.ReceiveGoods(r.Context(), receipt.ReceiveGoodsRequest{
		ReceiptDate: receiptDate,
		Note:        req.Note,
		CreatedBy:   actor.ID,
		Lines:       lines,
	})
	if err != nil {
		log.Warn("goods receipt failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/receipts/%s", rc.ID))
	RespondSuccess(w, http.StatusCreated, toReceiptDTO(rc))
}

func (h *ReceiptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	rc, err := h.receipts.GetReceipt(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("receipt lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toReceiptDTO(rc))
}
