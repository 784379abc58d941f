package domain

import (
	"time"

	"github.com/google/uuid"
)

// LowStockThreshold marks products that are running out on the dashboard.
const LowStockThreshold = 10

type Unit struct {
	ID   uuid.UUID
	Name string
}

type Product struct {
	ID            uuid.UUID
	Name          string
	UnitID        uuid.UUID
	Price         int64
	StockQuantity int64
	Description   *string
	IsActive      bool
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type GoodsReceipt struct {
	ID          uuid.UUID
	ReceiptDate time.Time
	CreatedBy   uuid.UUID
	Note        *string
	CreatedAt   time.Time
	Lines       []GoodsReceiptLine
}

type GoodsReceiptLine struct {
	ID        uuid.UUID
	ReceiptID uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
	UnitPrice int64
}

func (l GoodsReceiptLine) Total() int64 { return l.Quantity * l.UnitPrice }

func (r *GoodsReceipt) TotalAmount() int64 {
	var total int64
	for _, l := range r.Lines {
		total += l.Total()
	}
	return total
}
