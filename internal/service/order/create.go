package order

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

type LineRequest struct {
	ProductID uuid.UUID
	Quantity  int64
}

type CreateOrderRequest struct {
	AgencyID  uuid.UUID
	OrderDate time.Time
	Note      *string
	CreatedBy uuid.UUID
	Lines     []LineRequest
}

// CreateOrder places a pending order. Stock is reserved and the agency's debt
// grows by the order total in the same transaction that inserts the order.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.ExportOrder, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: begin tx: %w", err)
	}
	defer tx.Rollback()

	agency, err := s.agencies.GetForUpdate(ctx, tx, req.AgencyID)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(req.Lines))
	for _, l := range req.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := lockProducts(ctx, tx, s.products, ids)
	if err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	if err := validateOrder(agency, req.Lines, products); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	now := s.now().UTC()
	o := buildOrder(req, products, now)

	if err := s.orders.Create(ctx, tx, o); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	if err := applyStock(ctx, tx, s.products, products, o.QuantityByProduct(), -1); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	total := o.TotalAmount()
	if err := s.agencies.UpdateDebt(ctx, tx, agency.ID, agency.CurrentDebt+total, agency.Version+1); err != nil {
		return nil, fmt.Errorf("CreateOrder: update debt: %w", err)
	}

	if err := s.writeEvent(ctx, tx, newEvent(o.ID, domain.OrderEventCreate, nil, o.Status, req.CreatedBy, now)); err != nil {
		return nil, fmt.Errorf("CreateOrder: %w", err)
	}

	if err := repository.Commit(tx); err != nil {
		return nil, fmt.Errorf("CreateOrder: commit: %w", err)
	}

	log.Info("order created",
		"order_id", o.ID,
		"agency_id", agency.ID,
		"lines", len(o.Lines),
		"total_amount", total,
		"debt_after", agency.CurrentDebt+total,
	)

	return o, nil
}

// validateOrder runs the creation preconditions in a fixed order: agency
// active, agency under its ceiling, every line positive and in stock, at
// least one line. The order total and the resulting debt must fit in int64.
// products must hold every product the lines reference.
func validateOrder(agency *domain.Agency, lines []LineRequest, products map[uuid.UUID]*domain.Product) error {
	if !agency.IsActive {
		return fmt.Errorf("validateOrder: %w", domain.ErrAgencyInactive)
	}
	if !agency.CanOrder() {
		return fmt.Errorf("validateOrder: debt %d of %d: %w", agency.CurrentDebt, agency.MaxDebt, domain.ErrCreditExceeded)
	}

	requested := make(map[uuid.UUID]int64, len(lines))
	var total int64
	for _, l := range lines {
		if l.Quantity <= 0 {
			return fmt.Errorf("validateOrder: product %s: %w", l.ProductID, domain.ErrInvalidQuantity)
		}
		sum, ok := domain.AddAmount(requested[l.ProductID], l.Quantity)
		if !ok {
			return fmt.Errorf("validateOrder: product %s: quantity overflows: %w", l.ProductID, domain.ErrInvalidQuantity)
		}
		requested[l.ProductID] = sum

		p, ok := products[l.ProductID]
		if !ok {
			return fmt.Errorf("validateOrder: product %s: %w", l.ProductID, domain.ErrNotFound)
		}
		if sum > p.StockQuantity {
			return fmt.Errorf("validateOrder: %w", &domain.StockShortageError{
				ProductID: p.ID,
				Requested: sum,
				Available: p.StockQuantity,
			})
		}

		lineTotal, ok := domain.MulAmount(l.Quantity, p.Price)
		if !ok {
			return fmt.Errorf("validateOrder: product %s: line total overflows: %w", l.ProductID, domain.ErrInvalidQuantity)
		}
		if total, ok = domain.AddAmount(total, lineTotal); !ok {
			return fmt.Errorf("validateOrder: order total overflows: %w", domain.ErrInvalidQuantity)
		}
	}

	if len(lines) == 0 {
		return fmt.Errorf("validateOrder: %w", domain.ErrEmptyOrder)
	}
	if _, ok := domain.AddAmount(agency.CurrentDebt, total); !ok {
		return fmt.Errorf("validateOrder: debt %d plus %d overflows: %w", agency.CurrentDebt, total, domain.ErrInvalidQuantity)
	}
	return nil
}

func buildOrder(req CreateOrderRequest, products map[uuid.UUID]*domain.Product, now time.Time) *domain.ExportOrder {
	date := req.OrderDate
	if date.IsZero() {
		date = now
	}
	o := &domain.ExportOrder{
		ID:        uuid.New(),
		AgencyID:  req.AgencyID,
		OrderDate: domain.DateOf(date),
		Status:    domain.OrderStatusPending,
		CreatedBy: req.CreatedBy,
		Note:      req.Note,
		CreatedAt: now,
		UpdatedAt: now,
		Lines:     make([]domain.ExportOrderLine, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		o.Lines = append(o.Lines, domain.ExportOrderLine{
			ID:        uuid.New(),
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: products[l.ProductID].Price,
		})
	}
	return o
}

// applyStock moves stock of each locked product by sign*qty.
func applyStock(ctx context.Context, tx *sql.Tx, repo productRepo, locked map[uuid.UUID]*domain.Product, qty map[uuid.UUID]int64, sign int64) error {
	ids := make([]uuid.UUID, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	for _, id := range domain.LockOrder(ids) {
		p := locked[id]
		if err := repo.UpdateStock(ctx, tx, id, p.StockQuantity+sign*qty[id], p.Version+1); err != nil {
			return fmt.Errorf("applyStock: product %s: %w", id, err)
		}
	}
	return nil
}
