package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type stockShortageDetail struct {
	ProductID string `json:"product_id"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

var domainErrors = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrInvalidQuantity, ErrInvalidQuantity},
	{domain.ErrInvalidPrice, ErrInvalidPrice},
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrEmptyOrder, ErrEmptyDocument},
	{domain.ErrInvalidPeriod, ErrInvalidPeriod},
	{domain.ErrInvalidRequest, ErrInvalidRequest},
	{domain.ErrAmountOverflow, ErrAmountOverflow},
	{domain.ErrAgencyInactive, ErrAgencyInactive},
	{domain.ErrCreditExceeded, ErrCreditExceeded},
	{domain.ErrInsufficientStock, ErrInsufficientStock},
	{domain.ErrInvalidTransition, ErrInvalidTransition},
	{domain.ErrAmountExceedsDebt, ErrAmountExceedsDebt},
	{domain.ErrFutureDate, ErrFutureDate},
	{domain.ErrDistrictFull, ErrDistrictFull},
	{domain.ErrNotFound, ErrResourceNotFound},
	{domain.ErrVersionConflict, ErrVersionConflict},
	{domain.ErrConflict, ErrConflict},
}

// RespondDomainError translates a service error into its API error. Errors
// outside the domain taxonomy are logged and reported as internal errors.
func RespondDomainError(w http.ResponseWriter, err error) {
	var details any
	var shortage *domain.StockShortageError
	if errors.As(err, &shortage) {
		details = stockShortageDetail{
			ProductID: shortage.ProductID.String(),
			Requested: shortage.Requested,
			Available: shortage.Available,
		}
	}

	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			RespondAppError(w, d.appErr, details)
			return
		}
	}

	slog.Error("unhandled domain error", "error", err, "kind", domain.KindOf(err).String())
	RespondAppError(w, ErrInternalError, nil)
}
