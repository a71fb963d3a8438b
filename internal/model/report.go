package model

import (
	"time"

	"github.com/google/uuid"
)

// OrdersRegister is the admin export of orders for a period, grouped by
// primary status.
type OrdersRegister struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	TotalOrders int64
	TotalAmount float64
	Groups      []RegisterGroup
}

type RegisterGroup struct {
	Status OrderStatus
	Orders []RegisterRow
}

// CancellationAct is the printable acceptance certificate for an order with
// a requested or approved cancellation.
type CancellationAct struct {
	Order       Order
	GeneratedAt time.Time
}

type RegisterRow struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	StartDate      time.Time
	EndDate        time.Time
	PaymentStatus  PaymentStatus
	ContractStatus ContractStatus
	CancelStatus   CancelStatus
	TotalPrice     float64
	DiscountAmount float64
	ServiceCount   int64
	MovingCount    int64
}
