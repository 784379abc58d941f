package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipping,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipping,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// HoldsClaim reports whether stock and debt reserved at creation are still
// outstanding and may be released by cancellation.
func (s OrderStatus) HoldsClaim() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

type OrderEvent string

const (
	OrderEventCreate   OrderEvent = "create"
	OrderEventConfirm  OrderEvent = "confirm"
	OrderEventShip     OrderEvent = "ship"
	OrderEventComplete OrderEvent = "complete"
	OrderEventCancel   OrderEvent = "cancel"
)

func (e OrderEvent) IsValid() bool {
	switch e {
	case OrderEventConfirm, OrderEventShip, OrderEventComplete, OrderEventCancel:
		return true
	}
	return false
}

var orderTransitions = map[OrderEvent]struct {
	from []OrderStatus
	to   OrderStatus
}{
	OrderEventConfirm:  {from: []OrderStatus{OrderStatusPending}, to: OrderStatusConfirmed},
	OrderEventShip:     {from: []OrderStatus{OrderStatusConfirmed}, to: OrderStatusShipping},
	OrderEventComplete: {from: []OrderStatus{OrderStatusConfirmed, OrderStatusShipping}, to: OrderStatusCompleted},
	OrderEventCancel:   {from: []OrderStatus{OrderStatusPending, OrderStatusConfirmed}, to: OrderStatusCancelled},
}

// NextStatus returns the status an order in from moves to on event.
func NextStatus(from OrderStatus, event OrderEvent) (OrderStatus, error) {
	t, ok := orderTransitions[event]
	if !ok {
		return "", fmt.Errorf("NextStatus: unknown event %q: %w", event, ErrInvalidTransition)
	}
	for _, s := range t.from {
		if s == from {
			return t.to, nil
		}
	}
	return "", fmt.Errorf("NextStatus: %s from %s: %w", event, from, ErrInvalidTransition)
}

type ExportOrder struct {
	ID        uuid.UUID
	AgencyID  uuid.UUID
	OrderDate time.Time
	Status    OrderStatus
	CreatedBy uuid.UUID
	Note      *string
	CreatedAt time.Time
	UpdatedAt time.Time
	Lines     []ExportOrderLine
}

type ExportOrderLine struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
	UnitPrice int64
}

func (l ExportOrderLine) Total() int64 { return l.Quantity * l.UnitPrice }

func (o *ExportOrder) TotalAmount() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.Total()
	}
	return total
}

func (o *ExportOrder) TotalQuantity() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.Quantity
	}
	return total
}

// QuantityByProduct sums line quantities per product.
func (o *ExportOrder) QuantityByProduct() map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64, len(o.Lines))
	for _, l := range o.Lines {
		out[l.ProductID] += l.Quantity
	}
	return out
}

// OrderStatusEvent is one row of an order's audit trail.
type OrderStatusEvent struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Event      OrderEvent
	FromStatus *OrderStatus
	ToStatus   OrderStatus
	Actor      string
	CreatedAt  time.Time

	// DebtWrittenOff is the part of a cancelled order's total that could not
	// be taken off the agency's debt because the debt was already lower.
	DebtWrittenOff int64
}

type OrderFilter struct {
	AgencyID *uuid.UUID
	Status   *OrderStatus
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
