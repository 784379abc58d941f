package receipt

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/repository"
)

type receiptRepo interface {
	Create(ctx context.Context, tx *sql.Tx, rc *domain.GoodsReceipt) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GoodsReceipt, error)
}

type productRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Product, error)
	UpdateStock(ctx context.Context, tx *sql.Tx, id uuid.UUID, newStock int64, newVersion int64) error
}

type Service struct {
	receipts receiptRepo
	products productRepo
	db       *sql.DB
	now      func() time.Time
}

func NewService(receipts receiptRepo, products productRepo, db *sql.DB) *Service {
	return &Service{receipts: receipts, products: products, db: db, now: time.Now}
}

type LineRequest struct {
	ProductID uuid.UUID
	Quantity  int64
	UnitPrice int64
}

type ReceiveGoodsRequest struct {
	ReceiptDate time.Time
	Note        *string
	CreatedBy   uuid.UUID
	Lines       []LineRequest
}

// ReceiveGoods records inbound stock and adds every line's quantity to its
// product.
func (s *Service) ReceiveGoods(ctx context.Context, req ReceiveGoodsRequest) (*domain.GoodsReceipt, error) {
	log := logging.FromContext(ctx)

	if err := validateLines(req.Lines); err != nil {
		return nil, fmt.Errorf("ReceiveGoods: %w", err)
	}

	now := s.now().UTC()
	rc := buildReceipt(req, now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ReceiveGoods: begin tx: %w", err)
	}
	defer tx.Rollback()

	added := make(map[uuid.UUID]int64, len(rc.Lines))
	ids := make([]uuid.UUID, 0, len(rc.Lines))
	for _, l := range rc.Lines {
		added[l.ProductID] += l.Quantity
		ids = append(ids, l.ProductID)
	}

	for _, id := range domain.LockOrder(ids) {
		p, err := s.products.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("ReceiveGoods: %w", err)
		}
		stock, err := restock(p, added[id])
		if err != nil {
			return nil, fmt.Errorf("ReceiveGoods: %w", err)
		}
		if err := s.products.UpdateStock(ctx, tx, id, stock, p.Version+1); err != nil {
			return nil, fmt.Errorf("ReceiveGoods: product %s: %w", id, err)
		}
	}

	if err := s.receipts.Create(ctx, tx, rc); err != nil {
		return nil, fmt.Errorf("ReceiveGoods: %w", err)
	}

	if err := repository.Commit(tx); err != nil {
		return nil, fmt.Errorf("ReceiveGoods: commit: %w", err)
	}

	log.Info("goods received",
		"receipt_id", rc.ID,
		"lines", len(rc.Lines),
		"total_amount", rc.TotalAmount(),
	)

	return rc, nil
}

func (s *Service) GetReceipt(ctx context.Context, id uuid.UUID) (*domain.GoodsReceipt, error) {
	rc, err := s.receipts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetReceipt: %w", err)
	}
	return rc, nil
}

func validateLines(lines []LineRequest) error {
	if len(lines) == 0 {
		return fmt.Errorf("validateLines: %w", domain.ErrEmptyOrder)
	}
	added := make(map[uuid.UUID]int64, len(lines))
	var total int64
	for _, l := range lines {
		if l.Quantity <= 0 {
			return fmt.Errorf("validateLines: product %s: %w", l.ProductID, domain.ErrInvalidQuantity)
		}
		if l.UnitPrice <= 0 {
			return fmt.Errorf("validateLines: product %s: %w", l.ProductID, domain.ErrInvalidPrice)
		}
		sum, ok := domain.AddAmount(added[l.ProductID], l.Quantity)
		if !ok {
			return fmt.Errorf("validateLines: product %s: quantity overflows: %w", l.ProductID, domain.ErrInvalidQuantity)
		}
		added[l.ProductID] = sum

		lineTotal, ok := domain.MulAmount(l.Quantity, l.UnitPrice)
		if !ok {
			return fmt.Errorf("validateLines: product %s: line total overflows: %w", l.ProductID, domain.ErrInvalidQuantity)
		}
		if total, ok = domain.AddAmount(total, lineTotal); !ok {
			return fmt.Errorf("validateLines: receipt total overflows: %w", domain.ErrInvalidQuantity)
		}
	}
	return nil
}

// restock returns p's stock after qty more units arrive.
func restock(p *domain.Product, qty int64) (int64, error) {
	stock, ok := domain.AddAmount(p.StockQuantity, qty)
	if !ok {
		return 0, fmt.Errorf("restock: product %s: stock %d plus %d overflows: %w", p.ID, p.StockQuantity, qty, domain.ErrInvalidQuantity)
	}
	return stock, nil
}

func buildReceipt(req ReceiveGoodsRequest, now time.Time) *domain.GoodsReceipt {
	date := req.ReceiptDate
	if date.IsZero() {
		date = now
	}
	rc := &domain.GoodsReceipt{
		ID:          uuid.New(),
		ReceiptDate: domain.DateOf(date),
		CreatedBy:   req.CreatedBy,
		Note:        req.Note,
		CreatedAt:   now,
		Lines:       make([]domain.GoodsReceiptLine, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		rc.Lines = append(rc.Lines, domain.GoodsReceiptLine{
			ID:        uuid.New(),
			ReceiptID: rc.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return rc
}
