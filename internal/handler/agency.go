package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/service"
)

type agencyService interface {
	RegisterAgency(ctx context.Context, req service.RegisterAgencyRequest) (*domain.Agency, error)
	DebtInfo(ctx context.Context, agencyID uuid.UUID) (*service.DebtInfo, error)
	DebtHistory(ctx context.Context, agencyID uuid.UUID) ([]service.DebtHistoryEntry, error)
}

type AgencyHandler struct {
	agencies agencyService
}

func NewAgencyHandler(agencies agencyService) *AgencyHandler {
	return &AgencyHandler{agencies: agencies}
}

type registerAgencyRequest struct {
	UserID        string  `json:"user_id" validate:"omitempty,uuid"`
	Name          string  `json:"name" validate:"required,max=255"`
	Phone         string  `json:"phone" validate:"required,max=20"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Address       string  `json:"address" validate:"required"`
	AgencyTypeID  string  `json:"agency_type_id" validate:"required,uuid"`
	DistrictID    string  `json:"district_id" validate:"required,uuid"`
	ReceptionDate string  `json:"reception_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r registerAgencyRequest) Validate() []FieldError {
	return validateStruct(r)
}

type agencyDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         *string   `json:"email,omitempty"`
	Address       string    `json:"address"`
	AgencyTypeID  uuid.UUID `json:"agency_type_id"`
	DistrictID    uuid.UUID `json:"district_id"`
	CurrentDebt   int64     `json:"current_debt"`
	ReceptionDate string    `json:"reception_date"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAgencyDTO(a *domain.Agency) agencyDTO {
	return agencyDTO{
		ID:            a.ID,
		Name:          a.Name,
		Phone:         a.Phone,
		Email:         a.Email,
		Address:       a.Address,
		AgencyTypeID:  a.AgencyTypeID,
		DistrictID:    a.DistrictID,
		CurrentDebt:   a.CurrentDebt,
		ReceptionDate: formatDate(a.ReceptionDate),
		IsActive:      a.IsActive,
		CreatedAt:     a.CreatedAt,
	}
}

type debtInfoDTO struct {
	AgencyID       uuid.UUID `json:"agency_id"`
	Name           string    `json:"name"`
	AgencyTypeID   uuid.UUID `json:"agency_type_id"`
	MaxDebt        int64     `json:"max_debt"`
	CurrentDebt    int64     `json:"current_debt"`
	RemainingLimit int64     `json:"remaining_limit"`
	CanOrder       bool      `json:"can_order"`
}

type debtHistoryDTO struct {
	Kind   string    `json:"kind"`
	ID     uuid.UUID `json:"id"`
	Date   string    `json:"date"`
	Amount int64     `json:"amount"`
	Status string    `json:"status,omitempty"`
}

func (h *AgencyHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req registerAgencyRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	receptionDate, err := parseDate(req.ReceptionDate)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "reception_date", Message: "must be a date in YYYY-MM-DD format"}})
		return
	}

	in := service.RegisterAgencyRequest{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		AgencyTypeID:  uuid.MustParse(req.AgencyTypeID),
		DistrictID:    uuid.MustParse(req.DistrictID),
		ReceptionDate: receptionDate,
	}
	if req.UserID != "" {
		id := uuid.MustParse(req.UserID)
		in.UserID = &id
	}

	a, err := h.agencies.RegisterAgency(r.Context(), in)
	if err != nil {
		log.Warn("agency registration failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/agencies/%s", a.ID))
	RespondSuccess(w, http.StatusCreated, toAgencyDTO(a))
}

func (h *AgencyHandler) Debt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	info, err := h.agencies.DebtInfo(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("agency debt lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, debtInfoDTO{
		AgencyID:       info.AgencyID,
		Name:           info.Name,
		AgencyTypeID:   info.AgencyTypeID,
		MaxDebt:        info.MaxDebt,
		CurrentDebt:    info.CurrentDebt,
		RemainingLimit: info.RemainingLimit,
		CanOrder:       info.CanOrder,
	})
}

func (h *AgencyHandler) DebtHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	entries, err := h.agencies.DebtHistory(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("agency debt history lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]debtHistoryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, debtHistoryDTO{
			Kind:   string(e.Kind),
			ID:     e.ID,
			Date:   formatDate(e.Date),
			Amount: e.Amount,
			Status: string(e.Status),
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
