package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
)

type regulationService interface {
	GetRegulation(ctx context.Context, code, def string) string
	List(ctx context.Context) ([]domain.Regulation, error)
	Update(ctx context.Context, code, value string) error
}

type RegulationHandler struct {
	regulations regulationService
}

func NewRegulationHandler(regulations regulationService) *RegulationHandler {
	return &RegulationHandler{regulations: regulations}
}

type regulationDTO struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type updateRegulationRequest struct {
	Value string `json:"value" validate:"required,max=255"`
}

func (r updateRegulationRequest) Validate() []FieldError {
	return validateStruct(r)
}

// Get resolves a regulation value. The optional default query parameter is
// returned when the code is missing or inactive.
func (h *RegulationHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	value := h.regulations.GetRegulation(r.Context(), code, r.URL.Query().Get("default"))
	RespondSuccess(w, http.StatusOK, map[string]string{
		"code":  code,
		"value": value,
	})
}

func (h *RegulationHandler) List(w http.ResponseWriter, r *http.Request) {
	regs, err := h.regulations.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("regulation listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]regulationDTO, 0, len(regs))
	for _, reg := range regs {
		dtos = append(dtos, regulationDTO{
			Code:        reg.Code,
			Name:        reg.Name,
			Value:       reg.Value,
			Description: reg.Description,
			IsActive:    reg.IsActive,
			UpdatedAt:   reg.UpdatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *RegulationHandler) Update(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	var req updateRegulationRequest
	if err := decodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if err := h.regulations.Update(r.Context(), code, req.Value); err != nil {
		logging.FromContext(r.Context()).Warn("regulation update failed", "error", err, "code", code)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{
		"code":  code,
		"value": req.Value,
	})
}
