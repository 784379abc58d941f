package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
	"github.com/josh-kwaku/agency-ledger/internal/repository"
)

// DefaultMaxAgenciesPerDistrict applies when the regulation is not configured.
const DefaultMaxAgenciesPerDistrict = 999

type agencyRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Agency, error)
	Create(ctx context.Context, tx *sql.Tx, a *domain.Agency) error
	LockDistrict(ctx context.Context, tx *sql.Tx, districtID uuid.UUID) error
	CountByDistrict(ctx context.Context, tx *sql.Tx, districtID uuid.UUID) (int, error)
}

type debtOrderRepo interface {
	ListDebtBearing(ctx context.Context, agencyID uuid.UUID) ([]repository.DebtEntry, error)
}

type agencyPaymentRepo interface {
	ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]*domain.Payment, error)
}

type regulationReader interface {
	GetInt(ctx context.Context, code string, def int) int
}

type AgencyService struct {
	agencies    agencyRepo
	orders      debtOrderRepo
	payments    agencyPaymentRepo
	regulations regulationReader
	db          *sql.DB
	now         func() time.Time
}

func NewAgencyService(agencies agencyRepo, orders debtOrderRepo, payments agencyPaymentRepo, regulations regulationReader, db *sql.DB) *AgencyService {
	return &AgencyService{
		agencies:    agencies,
		orders:      orders,
		payments:    payments,
		regulations: regulations,
		db:          db,
		now:         time.Now,
	}
}

type RegisterAgencyRequest struct {
	UserID        *uuid.UUID
	Name          string
	Phone         string
	Email         *string
	Address       string
	AgencyTypeID  uuid.UUID
	DistrictID    uuid.UUID
	ReceptionDate time.Time
}

// RegisterAgency adds an agency unless its district is already at the
// MAX_AGENCIES_PER_DISTRICT limit.
func (s *AgencyService) RegisterAgency(ctx context.Context, req RegisterAgencyRequest) (*domain.Agency, error) {
	limit := s.regulations.GetInt(ctx, domain.RegulationMaxAgenciesPerDistrict, DefaultMaxAgenciesPerDistrict)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RegisterAgency: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.agencies.LockDistrict(ctx, tx, req.DistrictID); err != nil {
		return nil, fmt.Errorf("RegisterAgency: %w", err)
	}

	count, err := s.agencies.CountByDistrict(ctx, tx, req.DistrictID)
	if err != nil {
		return nil, fmt.Errorf("RegisterAgency: %w", err)
	}
	if count >= limit {
		return nil, fmt.Errorf("RegisterAgency: %d of %d: %w", count, limit, domain.ErrDistrictFull)
	}

	now := s.now().UTC()
	reception := req.ReceptionDate
	if reception.IsZero() {
		reception = now
	}
	a := &domain.Agency{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		AgencyTypeID:  req.AgencyTypeID,
		DistrictID:    req.DistrictID,
		ReceptionDate: domain.DateOf(reception),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.agencies.Create(ctx, tx, a); err != nil {
		return nil, fmt.Errorf("RegisterAgency: %w", err)
	}

	if err := repository.Commit(tx); err != nil {
		return nil, fmt.Errorf("RegisterAgency: commit: %w", err)
	}

	logging.FromContext(ctx).Info("agency registered",
		"agency_id", a.ID,
		"district_id", a.DistrictID,
		"district_count", count+1,
	)

	return a, nil
}

type DebtInfo struct {
	AgencyID       uuid.UUID
	Name           string
	AgencyTypeID   uuid.UUID
	MaxDebt        int64
	CurrentDebt    int64
	RemainingLimit int64
	CanOrder       bool
}

func (s *AgencyService) DebtInfo(ctx context.Context, agencyID uuid.UUID) (*DebtInfo, error) {
	a, err := s.agencies.GetByID(ctx, agencyID)
	if err != nil {
		return nil, fmt.Errorf("DebtInfo: %w", err)
	}
	return &DebtInfo{
		AgencyID:       a.ID,
		Name:           a.Name,
		AgencyTypeID:   a.AgencyTypeID,
		MaxDebt:        a.MaxDebt,
		CurrentDebt:    a.CurrentDebt,
		RemainingLimit: a.RemainingLimit(),
		CanOrder:       a.CanOrder(),
	}, nil
}

type DebtEntryKind string

const (
	DebtEntryOrder   DebtEntryKind = "order"
	DebtEntryPayment DebtEntryKind = "payment"
)

// DebtHistoryEntry is one movement of an agency's debt. Orders carry a
// positive amount and payments a negative one.
type DebtHistoryEntry struct {
	Kind   DebtEntryKind
	ID     uuid.UUID
	Date   time.Time
	Amount int64
	Status domain.OrderStatus
}

// DebtHistory lists confirmed, shipping and completed orders together with
// payments, newest first.
func (s *AgencyService) DebtHistory(ctx context.Context, agencyID uuid.UUID) ([]DebtHistoryEntry, error) {
	if _, err := s.agencies.GetByID(ctx, agencyID); err != nil {
		return nil, fmt.Errorf("DebtHistory: %w", err)
	}

	orders, err := s.orders.ListDebtBearing(ctx, agencyID)
	if err != nil {
		return nil, fmt.Errorf("DebtHistory: %w", err)
	}
	payments, err := s.payments.ListByAgency(ctx, agencyID)
	if err != nil {
		return nil, fmt.Errorf("DebtHistory: %w", err)
	}

	entries := make([]DebtHistoryEntry, 0, len(orders)+len(payments))
	for _, o := range orders {
		entries = append(entries, DebtHistoryEntry{
			Kind:   DebtEntryOrder,
			ID:     o.OrderID,
			Date:   o.OrderDate,
			Amount: o.TotalAmount,
			Status: o.Status,
		})
	}
	for _, p := range payments {
		entries = append(entries, DebtHistoryEntry{
			Kind:   DebtEntryPayment,
			ID:     p.ID,
			Date:   p.PaymentDate,
			Amount: -p.Amount,
		})
	}
	sortHistory(entries)
	return entries, nil
}

func sortHistory(entries []DebtHistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].Kind < entries[j].Kind
	})
}
