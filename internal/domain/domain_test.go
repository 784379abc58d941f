package domain

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		event   OrderEvent
		want    OrderStatus
		wantErr bool
	}{
		{OrderStatusPending, OrderEventConfirm, OrderStatusConfirmed, false},
		{OrderStatusConfirmed, OrderEventShip, OrderStatusShipping, false},
		{OrderStatusConfirmed, OrderEventComplete, OrderStatusCompleted, false},
		{OrderStatusShipping, OrderEventComplete, OrderStatusCompleted, false},
		{OrderStatusPending, OrderEventCancel, OrderStatusCancelled, false},
		{OrderStatusConfirmed, OrderEventCancel, OrderStatusCancelled, false},

		{OrderStatusPending, OrderEventShip, "", true},
		{OrderStatusPending, OrderEventComplete, "", true},
		{OrderStatusConfirmed, OrderEventConfirm, "", true},
		{OrderStatusShipping, OrderEventCancel, "", true},
		{OrderStatusShipping, OrderEventShip, "", true},
		{OrderStatusCompleted, OrderEventConfirm, "", true},
		{OrderStatusCompleted, OrderEventCancel, "", true},
		{OrderStatusCancelled, OrderEventConfirm, "", true},
		{OrderStatusCancelled, OrderEventCancel, "", true},
		{OrderStatusPending, OrderEventCreate, "", true},
		{OrderStatusPending, OrderEvent("refund"), "", true},
	}

	for _, tc := range tests {
		t.Run(fmt.Sprintf("%s_%s", tc.from, tc.event), func(t *testing.T) {
			got, err := NextStatus(tc.from, tc.event)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTerminalStatusesAllowNothing(t *testing.T) {
	events := []OrderEvent{OrderEventConfirm, OrderEventShip, OrderEventComplete, OrderEventCancel}
	for _, s := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		assert.True(t, s.IsTerminal())
		for _, e := range events {
			_, err := NextStatus(s, e)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s on %s", e, s)
		}
	}
}

func TestOrderTotals(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	o := &ExportOrder{Lines: []ExportOrderLine{
		{ProductID: p1, Quantity: 10, UnitPrice: 50_000},
		{ProductID: p2, Quantity: 2, UnitPrice: 7_500},
		{ProductID: p1, Quantity: 1, UnitPrice: 50_000},
	}}

	assert.Equal(t, int64(565_000), o.TotalAmount())
	assert.Equal(t, int64(13), o.TotalQuantity())
	assert.Equal(t, map[uuid.UUID]int64{p1: 11, p2: 2}, o.QuantityByProduct())
}

func TestAgencyCreditDerivations(t *testing.T) {
	tests := []struct {
		name          string
		debt, max     int64
		wantRemaining int64
		wantCanOrder  bool
	}{
		{"no debt", 0, 1_000_000, 1_000_000, true},
		{"below ceiling", 500_000, 1_000_000, 500_000, true},
		{"at ceiling", 1_000_000, 1_000_000, 0, false},
		{"over ceiling", 1_100_000, 1_000_000, -100_000, false},
		{"zero ceiling", 0, 0, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := &Agency{CurrentDebt: tc.debt, MaxDebt: tc.max}
			assert.Equal(t, tc.wantRemaining, a.RemainingLimit())
			assert.Equal(t, tc.wantCanOrder, a.CanOrder())
		})
	}
}

func TestPeriod(t *testing.T) {
	assert.Equal(t, Period{Month: 12, Year: 2025}, Period{Month: 1, Year: 2026}.Prev())
	assert.Equal(t, Period{Month: 6, Year: 2026}, Period{Month: 7, Year: 2026}.Prev())

	start, end := Period{Month: 12, Year: 2026}.Bounds()
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), end)

	assert.Equal(t, int64(202610), Period{Month: 10, Year: 2026}.Key())
	assert.Equal(t, "2026-03", Period{Month: 3, Year: 2026}.String())

	require.NoError(t, Period{Month: 1, Year: 2026}.Validate())
	require.ErrorIs(t, Period{Month: 0, Year: 2026}.Validate(), ErrInvalidPeriod)
	require.ErrorIs(t, Period{Month: 13, Year: 2026}.Validate(), ErrInvalidPeriod)
	require.ErrorIs(t, Period{Month: 5, Year: 0}.Validate(), ErrInvalidPeriod)
}

func TestKindOf(t *testing.T) {
	shortage := &StockShortageError{ProductID: uuid.New(), Requested: 60, Available: 50}

	assert.Equal(t, KindValidation, KindOf(fmt.Errorf("CreateOrder: %w", ErrInvalidQuantity)))
	assert.Equal(t, KindBusinessRule, KindOf(fmt.Errorf("CreateOrder: %w", shortage)))
	assert.Equal(t, KindBusinessRule, KindOf(ErrCreditExceeded))
	assert.Equal(t, KindIntegrity, KindOf(fmt.Errorf("GetByID: %w", ErrNotFound)))
	assert.Equal(t, KindIntegrity, KindOf(ErrConflict))
	assert.Equal(t, KindUnknown, KindOf(fmt.Errorf("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))

	assert.ErrorIs(t, shortage, ErrInsufficientStock)
	assert.Contains(t, shortage.Error(), "requested 60, only 50")
}

func TestCheckedAmounts(t *testing.T) {
	const max = int64(math.MaxInt64)

	tests := []struct {
		name   string
		op     func(a, b int64) (int64, bool)
		a, b   int64
		want   int64
		wantOK bool
	}{
		{"add", AddAmount, 4_000, 1_000, 5_000, true},
		{"add to max", AddAmount, max - 1, 1, max, true},
		{"add past max", AddAmount, max, 1, 0, false},
		{"add negative", AddAmount, 1_000, -4_000, -3_000, true},
		{"add past min", AddAmount, math.MinInt64, -1, 0, false},
		{"mul", MulAmount, 12, 50_000, 600_000, true},
		{"mul zero", MulAmount, 0, max, 0, true},
		{"mul wraps", MulAmount, 4611686018427387654, 4, 0, false},
		{"mul largest line", MulAmount, 1_000_000_000, 1_000_000_000, 1_000_000_000_000_000_000, true},
		{"mul negative", MulAmount, -1, 5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.op(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
