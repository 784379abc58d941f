package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/agency-ledger/internal/auth"
	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/export"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/service/report"
)

type reportService interface {
	GenerateReports(ctx context.Context, p domain.Period, actor uuid.UUID) (*report.Result, error)
	ListReports(ctx context.Context, p domain.Period) (*report.Result, error)
}

type ReportHandler struct {
	reports reportService
}

func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

type generateReportsRequest struct {
	Month int `json:"month" validate:"gte=1,max=12"`
	Year  int `json:"year" validate:"gte=1970,max=9999"`
}

func (r generateReportsRequest) Validate() []FieldError {
	return validateStruct(r)
}

type revenueRowDTO struct {
	AgencyID     uuid.UUID       `json:"agency_id"`
	OrderCount   int64           `json:"order_count"`
	TotalRevenue int64           `json:"total_revenue"`
	Ratio        decimal.Decimal `json:"ratio"`
}

type debtRowDTO struct {
	AgencyID    uuid.UUID `json:"agency_id"`
	OpeningDebt int64     `json:"opening_debt"`
	Incurred    int64     `json:"incurred"`
	Paid        int64     `json:"paid"`
	ClosingDebt int64     `json:"closing_debt"`
}

type reportsDTO struct {
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	CompanyRevenue int64           `json:"company_revenue"`
	Revenue        []revenueRowDTO `json:"revenue"`
	Debt           []debtRowDTO    `json:"debt"`
	GeneratedBy    *uuid.UUID      `json:"generated_by"`
	GeneratedAt    *time.Time      `json:"generated_at"`
}

func toReportsDTO(res *report.Result) reportsDTO {
	dto := reportsDTO{
		Month:          res.Period.Month,
		Year:           res.Period.Year,
		CompanyRevenue: res.CompanyRevenue,
		Revenue:        make([]revenueRowDTO, 0, len(res.Revenue)),
		Debt:           make([]debtRowDTO, 0, len(res.Debt)),
	}
	if !res.GeneratedAt.IsZero() {
		by, at := res.GeneratedBy, res.GeneratedAt
		dto.GeneratedBy = &by
		dto.GeneratedAt = &at
	}
	for _, rr := range res.Revenue {
		dto.Revenue = append(dto.Revenue, revenueRowDTO{
			AgencyID:     rr.AgencyID,
			OrderCount:   rr.OrderCount,
			TotalRevenue: rr.TotalRevenue,
			Ratio:        rr.Ratio,
		})
	}
	for _, d := range res.Debt {
		dto.Debt = append(dto.Debt, debtRowDTO{
			AgencyID:    d.AgencyID,
			OpeningDebt: d.OpeningDebt,
			Incurred:    d.Incurred,
			Paid:        d.Paid,
			ClosingDebt: d.ClosingDebt,
		})
	}
	return dto
}

func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	actor, ok := auth.ActorFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req generateReportsRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.reports.GenerateReports(r.Context(), domain.Period{Month: req.Month, Year: req.Year}, actor.ID)
	if err != nil {
		log.Warn("report generation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toReportsDTO(res))
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	p, fields := periodFromQuery(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.reports.ListReports(r.Context(), p)
	if err != nil {
		logging.FromContext(r.Context()).Warn("report listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toReportsDTO(res))
}

// Export streams the stored reports for the period as an XLSX attachment.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, fields := periodFromQuery(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	res, err := h.reports.ListReports(r.Context(), p)
	if err != nil {
		log.Warn("report export failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, res); err != nil {
		log.Error("failed to render report workbook", "error", err, "period", p.String())
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(res)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error("failed to write report workbook", "error", err)
	}
}
