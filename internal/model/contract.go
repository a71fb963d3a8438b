package model

import (
	"time"

	"github.com/google/uuid"
)

// Contract is a signable document tied to an order. DocumentID is assigned by
// the signing provider and is empty until the document is issued; cancellation
// requests target it when present.
type Contract struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	DocumentID string
	Status     ContractStatus
	CreatedAt  time.Time
}
