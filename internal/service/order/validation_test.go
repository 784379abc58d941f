package order

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

func stocked(stock int64) *domain.Product {
	return &domain.Product{ID: uuid.New(), Price: 50_000, StockQuantity: stock, IsActive: true}
}

func TestValidateOrder(t *testing.T) {
	widget := stocked(50)
	gadget := stocked(5)
	bulk := &domain.Product{ID: uuid.New(), Price: 4, StockQuantity: math.MaxInt64, IsActive: true}
	pricey := &domain.Product{ID: uuid.New(), Price: 1_000_000_000_000, StockQuantity: 20_000_000, IsActive: true}
	products := map[uuid.UUID]*domain.Product{widget.ID: widget, gadget.ID: gadget, bulk.ID: bulk, pricey.ID: pricey}

	agency := func(debt, max int64, active bool) *domain.Agency {
		return &domain.Agency{ID: uuid.New(), CurrentDebt: debt, MaxDebt: max, IsActive: active}
	}

	tests := []struct {
		name    string
		agency  *domain.Agency
		lines   []LineRequest
		wantErr error
	}{
		{
			name:   "valid order",
			agency: agency(0, 1_000_000, true),
			lines:  []LineRequest{{ProductID: widget.ID, Quantity: 10}},
		},
		{
			name:   "quantity equal to stock",
			agency: agency(0, 1_000_000, true),
			lines:  []LineRequest{{ProductID: widget.ID, Quantity: 50}},
		},
		{
			name:    "inactive agency",
			agency:  agency(0, 1_000_000, false),
			lines:   []LineRequest{{ProductID: widget.ID, Quantity: 1}},
			wantErr: domain.ErrAgencyInactive,
		},
		{
			name:    "inactive agency reported before empty order",
			agency:  agency(0, 1_000_000, false),
			wantErr: domain.ErrAgencyInactive,
		},
		{
			name:    "debt at ceiling",
			agency:  agency(1_000_000, 1_000_000, true),
			lines:   []LineRequest{{ProductID: widget.ID, Quantity: 1}},
			wantErr: domain.ErrCreditExceeded,
		},
		{
			name:    "debt above ceiling",
			agency:  agency(1_200_000, 1_000_000, true),
			lines:   []LineRequest{{ProductID: widget.ID, Quantity: 1}},
			wantErr: domain.ErrCreditExceeded,
		},
		{
			name:   "order may push debt past ceiling",
			agency: agency(500_000, 1_000_000, true),
			lines:  []LineRequest{{ProductID: widget.ID, Quantity: 12}},
		},
		{
			name:    "zero quantity",
			agency:  agency(0, 1_000_000, true),
			lines:   []LineRequest{{ProductID: widget.ID, Quantity: 0}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			agency:  agency(0, 1_000_000, true),
			lines:   []LineRequest{{ProductID: widget.ID, Quantity: -3}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "more than stock",
			agency:  agency(0, 1_000_000, true),
			lines:   []LineRequest{{ProductID: widget.ID, Quantity: 60}},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name:   "duplicate lines summed against stock",
			agency: agency(0, 1_000_000, true),
			lines: []LineRequest{
				{ProductID: gadget.ID, Quantity: 3},
				{ProductID: gadget.ID, Quantity: 3},
			},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name:    "credit checked before quantity",
			agency:  agency(1_000_000, 1_000_000, true),
			lines:   []LineRequest{{ProductID: widget.ID, Quantity: 0}},
			wantErr: domain.ErrCreditExceeded,
		},
		{
			name:    "no lines",
			agency:  agency(0, 1_000_000, true),
			wantErr: domain.ErrEmptyOrder,
		},
		{
			name:    "line total overflows",
			agency:  agency(5_000, 1_000_000, true),
			lines:   []LineRequest{{ProductID: bulk.ID, Quantity: 4611686018427387654}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:   "order total overflows across lines",
			agency: agency(0, 1_000_000, true),
			lines: []LineRequest{
				{ProductID: pricey.ID, Quantity: 5_000_000},
				{ProductID: pricey.ID, Quantity: 5_000_000},
			},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "resulting debt overflows",
			agency:  agency(math.MaxInt64-10, math.MaxInt64, true),
			lines:   []LineRequest{{ProductID: widget.ID, Quantity: 1}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:   "summed duplicate quantity overflows",
			agency: agency(0, 1_000_000, true),
			lines: []LineRequest{
				{ProductID: bulk.ID, Quantity: math.MaxInt64},
				{ProductID: bulk.ID, Quantity: math.MaxInt64},
			},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "unknown product",
			agency:  agency(0, 1_000_000, true),
			lines:   []LineRequest{{ProductID: uuid.New(), Quantity: 1}},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOrder(tt.agency, tt.lines, products)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateOrder_ShortageDetail(t *testing.T) {
	p := stocked(50)
	a := &domain.Agency{IsActive: true, MaxDebt: 10_000_000}

	err := validateOrder(a, []LineRequest{{ProductID: p.ID, Quantity: 60}}, map[uuid.UUID]*domain.Product{p.ID: p})

	var shortage *domain.StockShortageError
	require.True(t, errors.As(err, &shortage))
	assert.Equal(t, p.ID, shortage.ProductID)
	assert.Equal(t, int64(60), shortage.Requested)
	assert.Equal(t, int64(50), shortage.Available)
}

func TestBuildOrder_SnapshotsPrice(t *testing.T) {
	p := stocked(50)
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	o := buildOrder(CreateOrderRequest{
		AgencyID: uuid.New(),
		Lines:    []LineRequest{{ProductID: p.ID, Quantity: 10}},
	}, map[uuid.UUID]*domain.Product{p.ID: p}, now)

	p.Price = 99_999

	require.Len(t, o.Lines, 1)
	assert.Equal(t, int64(50_000), o.Lines[0].UnitPrice)
	assert.Equal(t, int64(500_000), o.TotalAmount())
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), o.OrderDate)
	assert.Equal(t, o.ID, o.Lines[0].OrderID)
}

func TestReleaseDebt(t *testing.T) {
	tests := []struct {
		name           string
		debt, total    int64
		wantDebt       int64
		wantWrittenOff int64
	}{
		{"debt covers order", 250_000, 50_000, 200_000, 0},
		{"debt equals order", 50_000, 50_000, 0, 0},
		{"debt below order", 10_000, 50_000, 0, 40_000},
		{"no debt left", 0, 50_000, 0, 50_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debt, writtenOff := releaseDebt(tt.debt, tt.total)
			assert.Equal(t, tt.wantDebt, debt)
			assert.Equal(t, tt.wantWrittenOff, writtenOff)
		})
	}
}
