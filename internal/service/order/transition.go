package order

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/repository"
)

// TransitionOrder applies event to the order. Cancelling returns every line's
// quantity to stock and removes the order total from the agency's debt. Debt
// is floored at zero and the shortfall is recorded on the cancel event.
func (s *Service) TransitionOrder(ctx context.Context, orderID uuid.UUID, event domain.OrderEvent, actor uuid.UUID) (*domain.ExportOrder, error) {
	log := logging.FromContext(ctx)

	if !event.IsValid() {
		return nil, fmt.Errorf("TransitionOrder: event %q: %w", event, domain.ErrInvalidTransition)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("TransitionOrder: begin tx: %w", err)
	}
	defer tx.Rollback()

	o, err := s.orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("TransitionOrder: %w", err)
	}

	from := o.Status
	to, err := domain.NextStatus(from, event)
	if err != nil {
		return nil, fmt.Errorf("TransitionOrder: %w", err)
	}

	var writtenOff int64
	if event == domain.OrderEventCancel {
		if writtenOff, err = s.releaseClaim(ctx, tx, o); err != nil {
			return nil, fmt.Errorf("TransitionOrder: %w", err)
		}
	}

	if err := s.orders.UpdateStatus(ctx, tx, o.ID, from, to); err != nil {
		return nil, fmt.Errorf("TransitionOrder: %w", err)
	}

	now := s.now().UTC()
	e := newEvent(o.ID, event, &from, to, actor, now)
	e.DebtWrittenOff = writtenOff
	if err := s.writeEvent(ctx, tx, e); err != nil {
		return nil, fmt.Errorf("TransitionOrder: %w", err)
	}

	if err := repository.Commit(tx); err != nil {
		return nil, fmt.Errorf("TransitionOrder: commit: %w", err)
	}

	o.Status = to
	o.UpdatedAt = now

	log.Info("order transitioned",
		"order_id", o.ID,
		"event", event,
		"from", from,
		"to", to,
	)
	if writtenOff > 0 {
		log.Warn("cancelled order exceeded agency debt",
			"order_id", o.ID,
			"agency_id", o.AgencyID,
			"debt_written_off", writtenOff,
		)
	}

	return o, nil
}

// releaseClaim undoes the stock and debt effects of creating o and returns
// the amount written off when the debt was below the order total. Locks are
// taken agency first, then products, matching creation.
func (s *Service) releaseClaim(ctx context.Context, tx *sql.Tx, o *domain.ExportOrder) (int64, error) {
	agency, err := s.agencies.GetForUpdate(ctx, tx, o.AgencyID)
	if err != nil {
		return 0, fmt.Errorf("releaseClaim: %w", err)
	}

	qty := o.QuantityByProduct()
	ids := make([]uuid.UUID, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	products, err := lockProducts(ctx, tx, s.products, ids)
	if err != nil {
		return 0, fmt.Errorf("releaseClaim: %w", err)
	}

	if err := applyStock(ctx, tx, s.products, products, qty, 1); err != nil {
		return 0, fmt.Errorf("releaseClaim: %w", err)
	}

	debt, writtenOff := releaseDebt(agency.CurrentDebt, o.TotalAmount())
	if err := s.agencies.UpdateDebt(ctx, tx, agency.ID, debt, agency.Version+1); err != nil {
		return 0, fmt.Errorf("releaseClaim: update debt: %w", err)
	}
	return writtenOff, nil
}

// releaseDebt takes total off debt without going below zero.
func releaseDebt(debt, total int64) (after, writtenOff int64) {
	if debt < total {
		return 0, total - debt
	}
	return debt - total, 0
}
