package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Role is not allowed to perform this action"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidQuantity = &AppError{http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be greater than zero and keep totals in range"}
	ErrInvalidPrice    = &AppError{http.StatusBadRequest, "INVALID_PRICE", "Unit price must be greater than zero"}
	ErrInvalidAmount   = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrEmptyDocument   = &AppError{http.StatusBadRequest, "EMPTY_DOCUMENT", "Document must contain at least one line"}
	ErrInvalidPeriod   = &AppError{http.StatusBadRequest, "INVALID_PERIOD", "Month must be 1-12 and year a four digit year"}
	ErrAmountOverflow  = &AppError{http.StatusUnprocessableEntity, "AMOUNT_OVERFLOW", "Amount exceeds the supported range"}

	ErrAgencyInactive    = &AppError{http.StatusUnprocessableEntity, "AGENCY_INACTIVE", "Agency is inactive"}
	ErrCreditExceeded    = &AppError{http.StatusUnprocessableEntity, "CREDIT_LIMIT_EXCEEDED", "Agency debt has reached its credit ceiling"}
	ErrInsufficientStock = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", "Insufficient stock"}
	ErrInvalidTransition = &AppError{http.StatusUnprocessableEntity, "INVALID_TRANSITION", "Order cannot move to the requested status"}
	ErrAmountExceedsDebt = &AppError{http.StatusUnprocessableEntity, "AMOUNT_EXCEEDS_DEBT", "Payment amount exceeds current debt"}
	ErrFutureDate        = &AppError{http.StatusUnprocessableEntity, "FUTURE_DATE", "Date cannot be in the future"}
	ErrDistrictFull      = &AppError{http.StatusUnprocessableEntity, "DISTRICT_FULL", "District has reached its agency limit"}

	ErrVersionConflict       = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrConflict              = &AppError{http.StatusConflict, "CONFLICT", "Request conflicted with a concurrent update, please retry"}
	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this Idempotency-Key is still being processed"}
)
