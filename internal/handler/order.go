package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/auth"
	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/service/order"
)

type orderService interface {
	CreateOrder(ctx context.Context, req order.CreateOrderRequest) (*domain.ExportOrder, error)
	TransitionOrder(ctx context.Context, orderID uuid.UUID, event domain.OrderEvent, actor uuid.UUID) (*domain.ExportOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.ExportOrder, error)
	ListOrders(ctx context.Context, f domain.OrderFilter) ([]*domain.ExportOrder, error)
	OrderHistory(ctx context.Context, id uuid.UUID) ([]domain.OrderStatusEvent, error)
}

type OrderHandler struct {
	orders orderService
}

func NewOrderHandler(orders orderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int64  `json:"quantity" validate:"gt=0,lte=1000000000"`
}

type createOrderRequest struct {
	AgencyID  string             `json:"agency_id" validate:"required,uuid"`
	OrderDate string             `json:"order_date" validate:"omitempty,datetime=2006-01-02"`
	Note      *string            `json:"note" validate:"omitempty,max=1000"`
	Lines     []orderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (r createOrderRequest) Validate() []FieldError {
	return validateStruct(r)
}

type orderLineDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
	Total     int64     `json:"total"`
}

type orderDTO struct {
	ID            uuid.UUID      `json:"id"`
	AgencyID      uuid.UUID      `json:"agency_id"`
	OrderDate     string         `json:"order_date"`
	Status        string         `json:"status"`
	CreatedBy     uuid.UUID      `json:"created_by"`
	Note          *string        `json:"note,omitempty"`
	TotalAmount   int64          `json:"total_amount"`
	TotalQuantity int64          `json:"total_quantity"`
	Lines         []orderLineDTO `json:"lines"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func toOrderDTO(o *domain.ExportOrder) orderDTO {
	dto := orderDTO{
		ID:            o.ID,
		AgencyID:      o.AgencyID,
		OrderDate:     formatDate(o.OrderDate),
		Status:        string(o.Status),
		CreatedBy:     o.CreatedBy,
		Note:          o.Note,
		TotalAmount:   o.TotalAmount(),
		TotalQuantity: o.TotalQuantity(),
		Lines:         make([]orderLineDTO, 0, len(o.Lines)),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, l := range o.Lines {
		dto.Lines = append(dto.Lines, orderLineDTO{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total(),
		})
	}
	return dto
}

type orderEventDTO struct {
	Event          string    `json:"event"`
	FromStatus     *string   `json:"from_status"`
	ToStatus       string    `json:"to_status"`
	Actor          string    `json:"actor"`
	DebtWrittenOff int64     `json:"debt_written_off"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	orderDate, err := parseDate(req.OrderDate)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "order_date", Message: "must be a date in YYYY-MM-DD format"}})
		return
	}

	lines := make([]order.LineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, order.LineRequest{
			ProductID: uuid.MustParse(l.ProductID),
			Quantity:  l.Quantity,
		})
	}

	o, err := h.orders.CreateOrder(r.Context(), order.CreateOrderRequest{
		AgencyID:  uuid.MustParse(req.AgencyID),
		OrderDate: orderDate,
		Note:      req.Note,
		CreatedBy: actor.ID,
		Lines:     lines,
	})
	if err != nil {
		log.Warn("order creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/orders/%s", o.ID))
	RespondSuccess(w, http.StatusCreated, toOrderDTO(o))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	o, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("order lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toOrderDTO(o))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	f, fields := orderFilterFromQuery(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), f)
	if err != nil {
		logging.FromContext(r.Context()).Warn("order listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, toOrderDTO(o))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func orderFilterFromQuery(r *http.Request) (domain.OrderFilter, []FieldError) {
	q := r.URL.Query()
	var f domain.OrderFilter
	var fields []FieldError

	if v := q.Get("agency_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			fields = append(fields, FieldError{Field: "agency_id", Message: "must be a valid UUID"})
		} else {
			f.AgencyID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		s := domain.OrderStatus(v)
		f.Status = &s
	}
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			fields = append(fields, FieldError{Field: p.name, Message: "must be a date in YYYY-MM-DD format"})
			continue
		}
		*p.dst = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			fields = append(fields, FieldError{Field: "limit", Message: "must be between 1 and 500"})
		} else {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fields = append(fields, FieldError{Field: "offset", Message: "must be a non-negative integer"})
		} else {
			f.Offset = n
		}
	}
	return f, fields
}

func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	events, err := h.orders.OrderHistory(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("order history lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]orderEventDTO, 0, len(events))
	for _, e := range events {
		dto := orderEventDTO{
			Event:          string(e.Event),
			ToStatus:       string(e.ToStatus),
			Actor:          e.Actor,
			DebtWrittenOff: e.DebtWrittenOff,
			CreatedAt:      e.CreatedAt,
		}
		if e.FromStatus != nil {
			s := string(*e.FromStatus)
			dto.FromStatus = &s
		}
		dtos = append(dtos, dto)
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

// Transition applies the lifecycle event named by the {event} path segment.
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	id, ok := pathUUID(r, "id")
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	event := domain.OrderEvent(r.PathValue("event"))
	o, err := h.orders.TransitionOrder(r.Context(), id, event, actor.ID)
	if err != nil {
		log.Warn("order transition failed", "error", err, "order_id", id, "event", event)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toOrderDTO(o))
}
