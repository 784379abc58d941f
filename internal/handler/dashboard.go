package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/service"
)

type dashboardService interface {
	Overview(ctx context.Context, now time.Time) (*service.Overview, error)
	OrderStatusSummary(ctx context.Context) (map[domain.OrderStatus]int, error)
	TopDebtors(ctx context.Context, limit int) ([]*domain.Agency, error)
}

type DashboardHandler struct {
	dashboard dashboardService
	loc       *time.Location
	now       func() time.Time
}

func NewDashboardHandler(dashboard dashboardService, loc *time.Location) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, loc: loc, now: time.Now}
}

type overviewDTO struct {
	Month    int `json:"month"`
	Year     int `json:"year"`
	Agencies struct {
		Total     int   `json:"total"`
		Active    int   `json:"active"`
		TotalDebt int64 `json:"total_debt"`
	} `json:"agencies"`
	Products struct {
		Total      int `json:"total"`
		LowStock   int `json:"low_stock"`
		OutOfStock int `json:"out_of_stock"`
	} `json:"products"`
	OrdersByStatus  map[string]int `json:"orders_by_status"`
	MonthRevenue    int64          `json:"month_revenue"`
	MonthOrderCount int64          `json:"month_order_count"`
}

func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.dashboard.Overview(r.Context(), h.now().In(h.loc))
	if err != nil {
		logging.FromContext(r.Context()).Warn("dashboard overview failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	var dto overviewDTO
	dto.Month = ov.Period.Month
	dto.Year = ov.Period.Year
	dto.Agencies.Total = ov.Agencies.Total
	dto.Agencies.Active = ov.Agencies.Active
	dto.Agencies.TotalDebt = ov.Agencies.TotalDebt
	dto.Products.Total = ov.Products.Total
	dto.Products.LowStock = ov.Products.LowStock
	dto.Products.OutOfStock = ov.Products.OutOfStock
	dto.OrdersByStatus = make(map[string]int, len(ov.OrdersByStatus))
	for s, n := range ov.OrdersByStatus {
		dto.OrdersByStatus[string(s)] = n
	}
	dto.MonthRevenue = ov.MonthRevenue
	dto.MonthOrderCount = ov.MonthOrderCount

	RespondSuccess(w, http.StatusOK, dto)
}

func (h *DashboardHandler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.dashboard.OrderStatusSummary(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("order status summary failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dto := make(map[string]int, len(counts))
	for s, n := range counts {
		dto[string(s)] = n
	}
	RespondSuccess(w, http.StatusOK, dto)
}

type debtorDTO struct {
	AgencyID       uuid.UUID `json:"agency_id"`
	AgencyName     string    `json:"agency_name"`
	CurrentDebt    int64     `json:"current_debt"`
	MaxDebt        int64     `json:"max_debt"`
	RemainingLimit int64     `json:"remaining_limit"`
	OverLimit      bool      `json:"over_limit"`
}

// TopDebtors lists the active agencies with the highest debt. ?limit
// defaults to 10.
func (h *DashboardHandler) TopDebtors(w http.ResponseWriter, r *http.Request) {
	var limit int
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > service.MaxTopDebtors {
			RespondValidationError(w, []FieldError{{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(service.MaxTopDebtors)}})
			return
		}
		limit = n
	}

	agencies, err := h.dashboard.TopDebtors(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context()).Warn("top debtors failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]debtorDTO, 0, len(agencies))
	for _, a := range agencies {
		dtos = append(dtos, debtorDTO{
			AgencyID:       a.ID,
			AgencyName:     a.Name,
			CurrentDebt:    a.CurrentDebt,
			MaxDebt:        a.MaxDebt,
			RemainingLimit: a.RemainingLimit(),
			OverLimit:      !a.CanOrder(),
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
