package model

import (
	"time"

	"github.com/google/uuid"
)

type MovingStatus string

const (
	// MovingStatusPendingFrom is a scheduled pickup from the client.
	MovingStatusPendingFrom MovingStatus = "PENDING_FROM"
	// MovingStatusPendingTo is a scheduled return to the client.
	MovingStatusPendingTo MovingStatus = "PENDING_TO"
	MovingStatusInTransit MovingStatus = "IN_TRANSIT"
	MovingStatusDone      MovingStatus = "DONE"
	MovingStatusCanceled  MovingStatus = "CANCELED"
)

type MovingDirection string

const (
	DirectionToWarehouse MovingDirection = "TO_WAREHOUSE"
	DirectionToClient    MovingDirection = "TO_CLIENT"
)

type MovingOrder struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Status     MovingStatus
	MovingDate time.Time
	Address    string
	Direction  MovingDirection
}
