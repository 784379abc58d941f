package domain

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID          uuid.UUID
	AgencyID    uuid.UUID
	PaymentDate time.Time
	Amount      int64
	ReceivedBy  uuid.UUID
	Note        *string
	CreatedAt   time.Time
}
