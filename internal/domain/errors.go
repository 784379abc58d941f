package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("unit price must be greater than zero")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrEmptyOrder      = errors.New("document must contain at least one line")
	ErrInvalidPeriod   = errors.New("invalid reporting period")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrAmountOverflow  = errors.New("amount exceeds the representable range")

	ErrAgencyInactive    = errors.New("agency inactive")
	ErrCreditExceeded    = errors.New("agency debt has reached the credit ceiling")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrAmountExceedsDebt = errors.New("payment amount exceeds current debt")
	ErrFutureDate        = errors.New("date is in the future")
	ErrDistrictFull      = errors.New("district has reached its agency limit")

	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("optimistic lock conflict")
	ErrConflict        = errors.New("concurrent update conflict")
)

// StockShortageError reports which product could not cover a requested quantity.
type StockShortageError struct {
	ProductID uuid.UUID
	Requested int64
	Available int64
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("product %s: requested %d, only %d in stock", e.ProductID, e.Requested, e.Available)
}

func (e *StockShortageError) Unwrap() error { return ErrInsufficientStock }

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindBusinessRule
	KindIntegrity
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidQuantity, KindValidation},
	{ErrInvalidPrice, KindValidation},
	{ErrInvalidAmount, KindValidation},
	{ErrEmptyOrder, KindValidation},
	{ErrInvalidPeriod, KindValidation},
	{ErrInvalidRequest, KindValidation},
	{ErrAmountOverflow, KindValidation},

	{ErrAgencyInactive, KindBusinessRule},
	{ErrCreditExceeded, KindBusinessRule},
	{ErrInsufficientStock, KindBusinessRule},
	{ErrInvalidTransition, KindBusinessRule},
	{ErrAmountExceedsDebt, KindBusinessRule},
	{ErrFutureDate, KindBusinessRule},
	{ErrDistrictFull, KindBusinessRule},

	{ErrNotFound, KindIntegrity},
	{ErrVersionConflict, KindIntegrity},
	{ErrConflict, KindIntegrity},
}

// KindOf classifies err into the ledger's error taxonomy.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}
