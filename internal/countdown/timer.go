// Package countdown reports how long an unpaid order has before it becomes
// eligible for automatic cancellation. It only computes and reports; the
// actual cancellation is performed by an external process.
package countdown

import (
	"time"

	"github.com/nurpe/storebox-portal/internal/model"
)

type State string

const (
	// StateNotApplicable means the order is outside the countdown window:
	// the deadline only applies to signed, unpaid orders in processing.
	StateNotApplicable State = "NOT_APPLICABLE"
	StateRunning       State = "RUNNING"
	StateExpired       State = "EXPIRED"
)

// DefaultGrace is the grace window after contract signature.
const DefaultGrace = time.Hour

// Applicable reports whether the auto-cancel deadline applies to the order.
func Applicable(o model.Order) bool {
	return o.Status == model.OrderStatusProcessing &&
		o.ContractStatus == model.ContractStatusSigned &&
		o.PaymentStatus == model.PaymentStatusUnpaid
}

// Deadline is the moment the order becomes eligible for auto-cancellation:
// contract signature time plus the grace window. When no signed contract is
// recorded the order creation time is used instead.
func Deadline(o model.Order, grace time.Duration) time.Time {
	return o.SignedAt().Add(grace)
}

// Remaining returns the time left until the deadline at the given instant.
// The duration is zero unless the state is StateRunning.
func Remaining(o model.Order, now time.Time, grace time.Duration) (time.Duration, State) {
	if !Applicable(o) {
		return 0, StateNotApplicable
	}
	left := Deadline(o, grace).Sub(now)
	if left <= 0 {
		return 0, StateExpired
	}
	return left, StateRunning
}
