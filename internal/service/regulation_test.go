package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/agency-ledger/internal/domain"
)

type fakeRegulations struct {
	values map[string]string
	err    error
}

func (f *fakeRegulations) GetActive(_ context.Context, code string) (*domain.Regulation, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Regulation{Code: code, Value: v, IsActive: true}, nil
}

func (f *fakeRegulations) List(context.Context) ([]domain.Regulation, error) { return nil, nil }

func (f *fakeRegulations) SetValue(_ context.Context, code, value string) error {
	f.values[code] = value
	return nil
}

func TestGetRegulation(t *testing.T) {
	ctx := context.Background()
	svc := NewRegulationService(&fakeRegulations{values: map[string]string{
		"MAX_AGENCIES_PER_DISTRICT": "4",
		"BROKEN":                    "four",
	}})

	assert.Equal(t, "4", svc.GetRegulation(ctx, "MAX_AGENCIES_PER_DISTRICT", "999"))
	assert.Equal(t, "999", svc.GetRegulation(ctx, "MISSING", "999"))

	assert.Equal(t, 4, svc.GetInt(ctx, "MAX_AGENCIES_PER_DISTRICT", 999))
	assert.Equal(t, 999, svc.GetInt(ctx, "MISSING", 999))
	assert.Equal(t, 7, svc.GetInt(ctx, "BROKEN", 7))
}

func TestGetRegulation_StoreErrorFallsBack(t *testing.T) {
	svc := NewRegulationService(&fakeRegulations{err: errors.New("connection reset")})
	assert.Equal(t, "10", svc.GetRegulation(context.Background(), "ANY", "10"))
}
