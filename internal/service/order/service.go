package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

type orderRepo interface {
	Create(ctx context.Context, tx *sql.Tx, o *domain.ExportOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExportOrder, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.ExportOrder, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, from, to domain.OrderStatus) error
	List(ctx context.Context, f domain.OrderFilter) ([]*domain.ExportOrder, error)
}

type agencyRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Agency, error)
	UpdateDebt(ctx context.Context, tx *sql.Tx, id uuid.UUID, newDebt int64, newVersion int64) error
}

type productRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Product, error)
	UpdateStock(ctx context.Context, tx *sql.Tx, id uuid.UUID, newStock int64, newVersion int64) error
}

type eventRepo interface {
	Create(ctx context.Context, tx *sql.Tx, e *domain.OrderStatusEvent) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.OrderStatusEvent, error)
}

type Service struct {
	orders   orderRepo
	agencies agencyRepo
	products productRepo
	events   eventRepo
	db       *sql.DB
	now      func() time.Time
}

func NewService(orders orderRepo, agencies agencyRepo, products productRepo, events eventRepo, db *sql.DB) *Service {
	return &Service{
		orders:   orders,
		agencies: agencies,
		products: products,
		events:   events,
		db:       db,
		now:      time.Now,
	}
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.ExportOrder, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetOrder: %w", err)
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, f domain.OrderFilter) ([]*domain.ExportOrder, error) {
	if f.Status != nil && !f.Status.IsValid() {
		return nil, fmt.Errorf("ListOrders: status %q: %w", *f.Status, domain.ErrInvalidRequest)
	}
	orders, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("ListOrders: %w", err)
	}
	return orders, nil
}

func (s *Service) OrderHistory(ctx context.Context, id uuid.UUID) ([]domain.OrderStatusEvent, error) {
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("OrderHistory: %w", err)
	}
	events, err := s.events.ListByOrderID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("OrderHistory: %w", err)
	}
	return events, nil
}

func newEvent(orderID uuid.UUID, event domain.OrderEvent, from *domain.OrderStatus, to domain.OrderStatus, actor uuid.UUID, at time.Time) *domain.OrderStatusEvent {
	return &domain.OrderStatusEvent{
		ID:         uuid.New(),
		OrderID:    orderID,
		Event:      event,
		FromStatus: from,
		ToStatus:   to,
		Actor:      fmt.Sprintf("user:%s", actor),
		CreatedAt:  at,
	}
}

func (s *Service) writeEvent(ctx context.Context, tx *sql.Tx, e *domain.OrderStatusEvent) error {
	if err := s.events.Create(ctx, tx, e); err != nil {
		return fmt.Errorf("writeEvent: %w", err)
	}
	return nil
}

// lockProducts takes row locks on every product referenced by ids in
// ascending id order.
func lockProducts(ctx context.Context, tx *sql.Tx, products productRepo, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	locked := make(map[uuid.UUID]*domain.Product, len(ids))
	for _, id := range domain.LockOrder(ids) {
		p, err := products.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockProducts: %w", err)
		}
		locked[id] = p
	}
	return locked, nil
}
