package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
	"github.com/josh-kwaku/agency-ledger/internal/logging"
)

type regulationRepo interface {
	GetActive(ctx context.Context, code string) (*domain.Regulation, error)
	List(ctx context.Context) ([]domain.Regulation, error)
	SetValue(ctx context.Context, code, value string) error
}

// RegulationService resolves policy parameters with a fallback.
type RegulationService struct {
	regulations regulationRepo
}

func NewRegulationService(regulations regulationRepo) *RegulationService {
	return &RegulationService{regulations: regulations}
}

// GetRegulation returns the value of an active regulation, or def when the
// code is missing or inactive. Store errors are logged and also yield def.
func (s *RegulationService) GetRegulation(ctx context.Context, code, def string) string {
	reg, err := s.regulations.GetActive(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logging.FromContext(ctx).Error("regulation lookup failed", "code", code, "error", err)
		}
		return def
	}
	return reg.Value
}

func (s *RegulationService) GetInt(ctx context.Context, code string, def int) int {
	raw := s.GetRegulation(ctx, code, strconv.Itoa(def))
	n, err := strconv.Atoi(raw)
	if err != nil {
		logging.FromContext(ctx).Warn("regulation is not an integer, using default",
			"code", code,
			"value", raw,
			"default", def,
		)
		return def
	}
	return n
}

func (s *RegulationService) List(ctx context.Context) ([]domain.Regulation, error) {
	return s.regulations.List(ctx)
}

func (s *RegulationService) Update(ctx context.Context, code, value string) error {
	if err := s.regulations.SetValue(ctx, code, value); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("regulation updated", "code", code, "value", value)
	return nil
}
