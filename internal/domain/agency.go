package domain

import (
	"time"

	"github.com/google/uuid"
)

type District struct {
	ID   uuid.UUID
	Name string
}

type AgencyType struct {
	ID      uuid.UUID
	Name    string
	MaxDebt int64
}

type Agency struct {
	ID            uuid.UUID
	UserID        *uuid.UUID
	Name          string
	Phone         string
	Email         *string
	Address       string
	AgencyTypeID  uuid.UUID
	DistrictID    uuid.UUID
	CurrentDebt   int64
	ReceptionDate time.Time
	IsActive      bool
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// MaxDebt is the credit ceiling copied from the agency's type when loaded.
	MaxDebt int64
}

func (a *Agency) RemainingLimit() int64 {
	return a.MaxDebt - a.CurrentDebt
}

// CanOrder reports whether the agency is still below its credit ceiling.
// The amount of the order being placed is not considered.
func (a *Agency) CanOrder() bool {
	return a.CurrentDebt < a.MaxDebt
}
