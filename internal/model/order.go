package model

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusInactive   OrderStatus = "INACTIVE"
	OrderStatusApproved   OrderStatus = "APPROVED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusActive     OrderStatus = "ACTIVE"
	OrderStatusCanceled   OrderStatus = "CANCELED"
	OrderStatusFinished   OrderStatus = "FINISHED"
)

type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "PAID"
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
)

type ContractStatus string

const (
	ContractStatusSigned   ContractStatus = "SIGNED"
	ContractStatusUnsigned ContractStatus = "UNSIGNED"
)

// CancelStatus tracks cancellation-request approval progress, independent of
// the primary order status.
type CancelStatus string

const (
	CancelStatusNo      CancelStatus = "NO"
	CancelStatusPending CancelStatus = "PENDING"
	CancelStatusSigned  CancelStatus = "SIGNED"
)

type Order struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	ContractStatus    ContractStatus
	CancelStatus      CancelStatus
	CreatedAt         time.Time
	StartDate         time.Time
	EndDate           time.Time
	Months            int
	RentalPrice       float64
	TotalPrice        float64
	DiscountAmount    float64
	IsSelectedMoving  bool
	IsSelectedPackage bool
	CancelReason      string
	CancelComment     string
	SelfPickupDate    *time.Time
	Items             []Item
	Services          []Service
	MovingOrders      []MovingOrder
	Contracts         []Contract
}

func (o Order) IsTerminal() bool {
	return o.Status == OrderStatusCanceled || o.Status == OrderStatusFinished
}

// TotalPayable is the amount still owed: rental price plus all service totals
// minus the discount, never below zero.
func (o Order) TotalPayable() float64 {
	total := o.RentalPrice
	for _, svc := range o.Services {
		total += svc.TotalPrice
	}
	total -= o.DiscountAmount
	if total < 0 {
		return 0
	}
	return total
}

// SignedAt returns the creation time of the earliest signed contract, falling
// back to the order creation time when no signed contract is recorded.
func (o Order) SignedAt() time.Time {
	var signedAt time.Time
	for _, c := range o.Contracts {
		if c.Status != ContractStatusSigned {
			continue
		}
		if signedAt.IsZero() || c.CreatedAt.Before(signedAt) {
			signedAt = c.CreatedAt
		}
	}
	if signedAt.IsZero() {
		return o.CreatedAt
	}
	return signedAt
}

// SignedContract returns the signed contract carrying a document id, if any.
func (o Order) SignedContract() *Contract {
	for i := range o.Contracts {
		if o.Contracts[i].Status == ContractStatusSigned && o.Contracts[i].DocumentID != "" {
			return &o.Contracts[i]
		}
	}
	return nil
}

func (o Order) HasService(t ServiceType) bool {
	for _, svc := range o.Services {
		if svc.Type == t {
			return true
		}
	}
	return false
}

func (o Order) HasMovingWithStatus(s MovingStatus) bool {
	for _, m := range o.MovingOrders {
		if m.Status == s {
			return true
		}
	}
	return false
}
