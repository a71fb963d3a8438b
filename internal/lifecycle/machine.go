// Package lifecycle holds the pure transition rules for the four order status
// axes. Persistence and collaborator calls are the caller's responsibility:
// Apply only returns the next snapshot.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/nurpe/storebox-portal/internal/model"
)

type Action string

const (
	ActionApprove       Action = "APPROVE"
	ActionSignContract  Action = "SIGN_CONTRACT"
	ActionPay           Action = "PAY"
	ActionRequestCancel Action = "REQUEST_CANCEL"
	ActionApproveCancel Action = "APPROVE_CANCEL"
	ActionUnlockStorage Action = "UNLOCK_STORAGE"
	ActionDelete        Action = "DELETE"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrDebtBlocksCancellation is returned when a cancellation is requested
	// on an order that still carries unpaid debt.
	ErrDebtBlocksCancellation = errors.New("cancellation blocked by unpaid debt")
	ErrUnknownAction          = errors.New("unknown action")
)

// CanApply reports whether the action is permitted from the order's current
// state.
func CanApply(o model.Order, a Action) bool {
	return guard(o, a) == nil
}

// CanApplyErr is CanApply with the reason the guard failed.
func CanApplyErr(o model.Order, a Action) error {
	return guard(o, a)
}

// Apply returns a copy of the order with the action applied, or an error when
// the action is outside its guard. Items, services and child collections are
// carried over untouched.
func Apply(o model.Order, a Action) (model.Order, error) {
	if err := guard(o, a); err != nil {
		return model.Order{}, err
	}

	next := o
	switch a {
	case ActionApprove:
		next.Status = model.OrderStatusApproved
	case ActionSignContract:
		next.ContractStatus = model.ContractStatusSigned
		next.Status = model.OrderStatusProcessing
	case ActionPay:
		next.PaymentStatus = model.PaymentStatusPaid
		next.Status = model.OrderStatusActive
	case ActionRequestCancel:
		next.CancelStatus = model.CancelStatusPending
	case ActionApproveCancel:
		next.CancelStatus = model.CancelStatusSigned
		next.Status = model.OrderStatusCanceled
	case ActionUnlockStorage, ActionDelete:
		// No local state change: storage release and physical deletion are
		// collaborator calls made by the caller once the guard passes.
	}
	return next, nil
}

func guard(o model.Order, a Action) error {
	switch a {
	case ActionApprove:
		if o.Status != model.OrderStatusInactive {
			return transitionErr(o, a)
		}
	case ActionSignContract:
		if o.Status != model.OrderStatusApproved {
			return transitionErr(o, a)
		}
	case ActionPay:
		if o.Status != model.OrderStatusProcessing || o.ContractStatus != model.ContractStatusSigned {
			return transitionErr(o, a)
		}
	case ActionRequestCancel:
		if o.Status != model.OrderStatusActive || o.CancelStatus != model.CancelStatusNo {
			return transitionErr(o, a)
		}
		if o.PaymentStatus != model.PaymentStatusPaid {
			return ErrDebtBlocksCancellation
		}
	case ActionApproveCancel:
		if o.CancelStatus != model.CancelStatusPending {
			return transitionErr(o, a)
		}
	case ActionUnlockStorage:
		if o.Status != model.OrderStatusCanceled || o.CancelStatus != model.CancelStatusSigned {
			return transitionErr(o, a)
		}
	case ActionDelete:
		if o.Status != model.OrderStatusInactive && !o.IsTerminal() {
			return transitionErr(o, a)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, a)
	}
	return nil
}

func transitionErr(o model.Order, a Action) error {
	return fmt.Errorf("%w: %s not permitted from status=%s payment=%s contract=%s cancel=%s",
		ErrInvalidTransition, a, o.Status, o.PaymentStatus, o.ContractStatus, o.CancelStatus)
}
