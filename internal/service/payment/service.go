package payment

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

type paymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
}

type agencyRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Agency, error)
	UpdateDebt(ctx context.Context, tx *sql.Tx, id uuid.UUID, newDebt int64, newVersion int64) error
}

type Service struct {
	payments paymentRepo
	agencies agencyRepo
	db       *sql.DB
	loc      *time.Location
	now      func() time.Time
}

// NewService builds the payment ledger. loc decides which calendar day is
// "today" when rejecting future-dated payments.
func NewService(payments paymentRepo, agencies agencyRepo, db *sql.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		payments: payments,
		agencies: agencies,
		db:       db,
		loc:      loc,
		now:      time.Now,
	}
}

type RecordPaymentRequest struct {
	AgencyID    uuid.UUID
	PaymentDate time.Time
	Amount      int64
	Note        *string
	ReceivedBy  uuid.UUID
}

// RecordPayment stores the payment and lowers the agency's debt by its amount
// in one transaction.
func (s *Service) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*domain.Payment, error) {
	log := logging.FromContext(ctx)

	today := domain.DateOf(s.now().In(s.loc))
	if req.PaymentDate.IsZero() {
		req.PaymentDate = today
	}
	if err := validateRequest(req, today); err != nil {
		return nil, fmt.Errorf("RecordPayment: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RecordPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	agency, err := s.agencies.GetForUpdate(ctx, tx, req.AgencyID)
	if err != nil {
		return nil, fmt.Errorf("RecordPayment: %w", err)
	}
	if err := validateAgainstAgency(req.Amount, agency); err != nil {
		return nil, fmt.Errorf("RecordPayment: %w", err)
	}

	p := &domain.Payment{
		ID:          uuid.New(),
		AgencyID:    agency.ID,
		PaymentDate: domain.DateOf(req.PaymentDate),
		Amount:      req.Amount,
		ReceivedBy:  req.ReceivedBy,
		Note:        req.Note,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.payments.Create(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("RecordPayment: create payment: %w", err)
	}

	debtAfter := agency.CurrentDebt - req.Amount
	if err := s.agencies.UpdateDebt(ctx, tx, agency.ID, debtAfter, agency.Version+1); err != nil {
		return nil, fmt.Errorf("RecordPayment: update debt: %w", err)
	}

	if err := repository.Commit(tx); err != nil {
		return nil, fmt.Errorf("RecordPayment: commit: %w", err)
	}

	log.Info("payment recorded",
		"payment_id", p.ID,
		"agency_id", agency.ID,
		"amount", p.Amount,
		"debt_before", agency.CurrentDebt,
		"debt_after", debtAfter,
	)

	return p, nil
}

func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetPayment: %w", err)
	}
	return p, nil
}

func validateRequest(req RecordPaymentRequest, today time.Time) error {
	if req.Amount <= 0 {
		return fmt.Errorf("validateRequest: %w", domain.ErrInvalidAmount)
	}
	if domain.DateOf(req.PaymentDate).After(today) {
		return fmt.Errorf("validateRequest: %s: %w", req.PaymentDate.Format(time.DateOnly), domain.ErrFutureDate)
	}
	return nil
}

func validateAgainstAgency(amount int64, agency *domain.Agency) error {
	if !agency.IsActive {
		return fmt.Errorf("validateAgainstAgency: %w", domain.ErrAgencyInactive)
	}
	if amount > agency.CurrentDebt {
		return fmt.Errorf("validateAgainstAgency: amount %d, debt %d: %w", amount, agency.CurrentDebt, domain.ErrAmountExceedsDebt)
	}
	return nil
}
