// Package cancellation drives the multi-step flow that ends in a cancellation
// request: reason selection, an optional pickup-method choice, and either a
// self-pickup date or a paid return delivery. The delivery branch is a strict
// chain (create the moving order, charge the delivery service, then submit)
// where a failed step aborts everything after it.
package cancellation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/storebox-portal/internal/lifecycle"
	"github.com/nurpe/storebox-portal/internal/model"
)

type Step string

const (
	StepReasonSelection Step = "REASON_SELECTION"
	StepPickupMethod    Step = "PICKUP_METHOD"
	StepSelfPickupDate  Step = "SELF_PICKUP_DATE"
	StepDeliveryDetails Step = "DELIVERY_DETAILS"
	StepReadyToSubmit   Step = "READY_TO_SUBMIT"
	StepDone            Step = "DONE"
	// StepDebtBlocked is terminal: the flow never starts for an unpaid
	// order, and no network call is made. The caller should redirect to the
	// payment view instead.
	StepDebtBlocked Step = "DEBT_BLOCKED"
)

type Reason string

const (
	ReasonTooExpensive Reason = "too_expensive"
	ReasonNoLongerNeed Reason = "no_longer_need"
	ReasonMoving       Reason = "moving"
	ReasonPoorService  Reason = "poor_service"
	ReasonOther        Reason = "other"
)

var reasons = map[Reason]struct{}{
	ReasonTooExpensive: {},
	ReasonNoLongerNeed: {},
	ReasonMoving:       {},
	ReasonPoorService:  {},
	ReasonOther:        {},
}

// Reasons lists the accepted cancellation reasons in display order.
func Reasons() []Reason {
	return []Reason{ReasonTooExpensive, ReasonNoLongerNeed, ReasonMoving, ReasonPoorService, ReasonOther}
}

type PickupMethod string

const (
	PickupSelf     PickupMethod = "SELF_PICKUP"
	PickupDelivery PickupMethod = "DELIVERY"
)

var ErrStepOrder = errors.New("step not available")

// CancelRequest is the payload submitted to the cancellation endpoint.
type CancelRequest struct {
	OrderID        uuid.UUID
	DocumentID     string
	Reason         Reason
	Comment        string
	SelfPickupDate *time.Time
}

type CreateMovingInput struct {
	OrderID    uuid.UUID
	MovingDate time.Time
	Status     model.MovingStatus
	Direction  model.MovingDirection
	Address    string
}

// OrderGateway submits the cancellation request. CancelContract targets a
// signed contract document; CancelOrder is the fallback when none is issued.
type OrderGateway interface {
	CancelContract(ctx context.Context, req CancelRequest) error
	CancelOrder(ctx context.Context, req CancelRequest) error
}

type MovingGateway interface {
	CreateMoving(ctx context.Context, in CreateMovingInput) (model.MovingOrder, error)
}

// PaymentGateway charges the return-delivery service and returns the payment
// redirect destination.
type PaymentGateway interface {
	CreateAdditionalServicePayment(ctx context.Context, orderID uuid.UUID, serviceType model.ServiceType) (string, error)
}

// Workflow holds the flow state for one order within one session. Entered
// data survives a failed submit so the user can retry without re-typing.
type Workflow struct {
	order   model.Order
	session model.Principal
	now     func() time.Time
	orders  OrderGateway
	moving  MovingGateway
	payment PaymentGateway
	log     zerolog.Logger

	step            Step
	reason          Reason
	comment         string
	method          PickupMethod
	selfPickupDate  *time.Time
	deliveryDate    time.Time
	deliveryAddress string
}

// New opens the flow for the order. An unpaid order lands in StepDebtBlocked
// immediately.
func New(order model.Order, session model.Principal, orders OrderGateway, moving MovingGateway, payment PaymentGateway, now func() time.Time, log zerolog.Logger) *Workflow {
	if now == nil {
		now = time.Now
	}
	w := &Workflow{
		order:   order,
		session: session,
		now:     now,
		orders:  orders,
		moving:  moving,
		payment: payment,
		log:     log,
		step:    StepReasonSelection,
	}
	if order.PaymentStatus != model.PaymentStatusPaid {
		w.step = StepDebtBlocked
	}
	return w
}

func (w *Workflow) Step() Step { return w.step }

// NeedsPickupMethod reports whether the user must choose how stored goods
// come back. False when the order already carries return logistics, in which
// case the flow submits against the existing moving order.
func (w *Workflow) NeedsPickupMethod() bool {
	return !w.order.HasService(model.ServiceTypeGazelleTo) &&
		!w.order.HasMovingWithStatus(model.MovingStatusPendingTo)
}

// ChooseReason records the cancellation reason. "other" requires a non-blank
// comment, checked again before submit.
func (w *Workflow) ChooseReason(r Reason, comment string) error {
	if w.step != StepReasonSelection {
		return fmt.Errorf("%w: reason already chosen or flow blocked", ErrStepOrder)
	}
	if _, ok := reasons[r]; !ok {
		return fmt.Errorf("%w: unknown reason %q", model.ErrValidation, r)
	}
	w.reason = r
	w.comment = strings.TrimSpace(comment)
	if w.NeedsPickupMethod() {
		w.step = StepPickupMethod
	} else {
		w.step = StepReadyToSubmit
	}
	return nil
}

func (w *Workflow) ChoosePickupMethod(m PickupMethod) error {
	if w.step != StepPickupMethod {
		return fmt.Errorf("%w: pickup method not requested", ErrStepOrder)
	}
	switch m {
	case PickupSelf:
		w.method = m
		w.step = StepSelfPickupDate
	case PickupDelivery:
		w.method = m
		w.step = StepDeliveryDetails
	default:
		return fmt.Errorf("%w: unknown pickup method %q", model.ErrValidation, m)
	}
	return nil
}

// SetSelfPickupDate records an optional pickup date. A nil date means the
// customer will arrange pickup later.
func (w *Workflow) SetSelfPickupDate(date *time.Time) error {
	if w.step != StepSelfPickupDate {
		return fmt.Errorf("%w: self-pickup date not requested", ErrStepOrder)
	}
	if date != nil && date.Before(today(w.now())) {
		return fmt.Errorf("%w: pickup date must not be in the past", model.ErrValidation)
	}
	w.selfPickupDate = date
	w.step = StepReadyToSubmit
	return nil
}

func (w *Workflow) SetDeliveryDetails(date time.Time, address string) error {
	if w.step != StepDeliveryDetails {
		return fmt.Errorf("%w: delivery details not requested", ErrStepOrder)
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("%w: specify delivery address", model.ErrValidation)
	}
	if date.Before(today(w.now())) {
		return fmt.Errorf("%w: delivery date must not be in the past", model.ErrValidation)
	}
	w.deliveryDate = date
	w.deliveryAddress = address
	w.step = StepReadyToSubmit
	return nil
}

// Result of a successful submit. RedirectURL is set only for the delivery
// branch and points at the payment provider; the cancellation request is
// already submitted at that point, it does not wait for payment completion.
type Result struct {
	Order       model.Order
	RedirectURL string
}

// Submit runs the closing chain. Delivery branch: create the moving order,
// charge the delivery service, then send the cancellation request, strictly
// in that order, aborting on the first failure with the flow state kept for
// retry. Self-pickup and existing-logistics branches submit directly.
func (w *Workflow) Submit(ctx context.Context) (*Result, error) {
	if w.step != StepReadyToSubmit {
		return nil, fmt.Errorf("%w: flow is not ready to submit", ErrStepOrder)
	}
	if err := lifecycle.CanApplyErr(w.order, lifecycle.ActionRequestCancel); err != nil {
		return nil, err
	}
	if w.reason == ReasonOther && w.comment == "" {
		return nil, fmt.Errorf("%w: comment is required for reason \"other\"", model.ErrValidation)
	}

	redirectURL := ""
	if w.method == PickupDelivery {
		url, err := w.runDeliveryChain(ctx)
		if err != nil {
			return nil, err
		}
		redirectURL = url
	}

	if err := w.submitCancel(ctx); err != nil {
		return nil, err
	}

	updated, err := lifecycle.Apply(w.order, lifecycle.ActionRequestCancel)
	if err != nil {
		return nil, err
	}
	w.order = updated
	w.step = StepDone
	w.log.Info().
		Str("order_id", w.order.ID.String()).
		Str("reason", string(w.reason)).
		Str("method", string(w.method)).
		Msg("cancellation requested")
	return &Result{Order: updated, RedirectURL: redirectURL}, nil
}

// runDeliveryChain executes the two gated collaborator calls. The charge only
// runs after the moving order exists, and a retry after a failed charge
// reuses the moving order the first attempt already persisted.
func (w *Workflow) runDeliveryChain(ctx context.Context) (string, error) {
	if !w.order.HasMovingWithStatus(model.MovingStatusPendingTo) {
		created, err := w.moving.CreateMoving(ctx, CreateMovingInput{
			OrderID:    w.order.ID,
			MovingDate: w.deliveryDate,
			Status:     model.MovingStatusPendingTo,
			Direction:  model.DirectionToClient,
			Address:    w.deliveryAddress,
		})
		if err != nil {
			return "", fmt.Errorf("create moving order: %w", err)
		}
		w.order.MovingOrders = append(w.order.MovingOrders, created)
	}

	url, err := w.payment.CreateAdditionalServicePayment(ctx, w.order.ID, model.ServiceTypeGazelleTo)
	if err != nil {
		return "", fmt.Errorf("create delivery payment: %w", err)
	}
	return url, nil
}

func (w *Workflow) submitCancel(ctx context.Context) error {
	req := CancelRequest{
		OrderID:        w.order.ID,
		Reason:         w.reason,
		Comment:        w.comment,
		SelfPickupDate: w.selfPickupDate,
	}
	if contract := w.order.SignedContract(); contract != nil {
		req.DocumentID = contract.DocumentID
		return w.orders.CancelContract(ctx, req)
	}
	return w.orders.CancelOrder(ctx, req)
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
