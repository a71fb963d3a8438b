package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/storebox-portal/internal/cancellation"
	"github.com/nurpe/storebox-portal/internal/config"
	"github.com/nurpe/storebox-portal/internal/countdown"
	"github.com/nurpe/storebox-portal/internal/editor"
	"github.com/nurpe/storebox-portal/internal/lifecycle"
	"github.com/nurpe/storebox-portal/internal/logistics"
	"github.com/nurpe/storebox-portal/internal/model"
)

// OrderStore is the persistence surface the order service drives. The gorm
// repository satisfies it in production.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	SaveState(ctx context.Context, o model.Order) error
	SaveStateWithContract(ctx context.Context, o model.Order, c model.Contract) error
	ReplaceCollections(ctx context.Context, o model.Order) error
	InsertMoving(ctx context.Context, m model.MovingOrder) (model.MovingOrder, error)
	InsertService(ctx context.Context, orderID uuid.UUID, svc model.Service) (model.Service, error)
	UpdateExtension(ctx context.Context, id uuid.UUID, months int, endDate time.Time) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// PaymentProvider is the external payment collaborator.
type PaymentProvider interface {
	CreatePayment(ctx context.Context, orderID uuid.UUID) (string, error)
	CreateManualPayment(ctx context.Context, orderPaymentID uuid.UUID) (string, error)
	CreateAdditionalServicePayment(ctx context.Context, orderID uuid.UUID, serviceType model.ServiceType) (string, error)
	GetPrices(ctx context.Context) ([]model.Tariff, error)
}

// StorageUnlocker releases the physical storage box after a fully signed
// cancellation.
type StorageUnlocker interface {
	Unlock(ctx context.Context, orderID uuid.UUID) error
}

type OrderService struct {
	repo      OrderStore
	payments  PaymentProvider
	warehouse StorageUnlocker
	log       zerolog.Logger
	grace     time.Duration
	reasons   []string
	now       func() time.Time
}

func NewOrderService(repo OrderStore, payments PaymentProvider, warehouse StorageUnlocker, cfg *config.Config, log zerolog.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		payments:  payments,
		warehouse: warehouse,
		log:       log,
		grace:     cfg.Orders.AutoCancelGrace,
		reasons:   cfg.Orders.CancelReasons,
		now:       time.Now,
	}
}

// CancellationReasons lists the reasons offered in the cancellation survey,
// configurable per deployment with the built-in set as fallback.
func (s *OrderService) CancellationReasons() []string {
	if len(s.reasons) > 0 {
		return s.reasons
	}
	defaults := cancellation.Reasons()
	result := make([]string, len(defaults))
	for i, r := range defaults {
		result[i] = string(r)
	}
	return result
}

func (s *OrderService) GetOrder(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.CanAccessOrder(*order) {
		return nil, ErrPermissionDenied
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, principal model.Principal) ([]model.Order, error) {
	userID := principal.UserID
	if principal.IsAdmin() {
		userID = uuid.Nil
	}
	return s.repo.ListOrders(ctx, userID)
}

// Approve moves a freshly booked order into the approved state. Admin only.
func (s *OrderService) Approve(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Order, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.applyAndReload(ctx, principal, id, lifecycle.ActionApprove)
}

// SignContract marks the contract signed, records the issued document and
// moves the order into processing. The auto-cancel countdown starts here.
// The contract row and the state change land in one transaction so a failed
// save cannot leave a signed document on an unsigned order.
func (s *OrderService) SignContract(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Order, error) {
	order, err := s.GetOrder(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Apply(*order, lifecycle.ActionSignContract)
	if err != nil {
		return nil, err
	}
	contract := model.Contract{
		OrderID:    next.ID,
		DocumentID: uuid.NewString(),
		Status:     model.ContractStatusSigned,
		CreatedAt:  s.now(),
	}
	if err := s.repo.SaveStateWithContract(ctx, next, contract); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("order_id", id.String()).
		Str("action", string(lifecycle.ActionSignContract)).
		Str("status", string(next.Status)).
		Msg("order transitioned")
	return s.repo.GetOrder(ctx, id)
}

// CreateRentPayment opens a payment with the provider and returns the
// redirect destination. The order state does not change until the provider
// confirms.
func (s *OrderService) CreateRentPayment(ctx context.Context, principal model.Principal, id uuid.UUID) (string, error) {
	order, err := s.GetOrder(ctx, principal, id)
	if err != nil {
		return "", err
	}
	if err := lifecycle.CanApplyErr(*order, lifecycle.ActionPay); err != nil {
		return "", err
	}
	return s.payments.CreatePayment(ctx, order.ID)
}

// CreateManualPayment re-opens a previously issued payment.
func (s *OrderService) CreateManualPayment(ctx context.Context, orderPaymentID uuid.UUID) (string, error) {
	return s.payments.CreateManualPayment(ctx, orderPaymentID)
}

// ConfirmPayment is the provider callback: marks the order paid and active.
func (s *OrderService) ConfirmPayment(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	next, err := lifecycle.Apply(*order, lifecycle.ActionPay)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveState(ctx, next); err != nil {
		return nil, err
	}
	s.log.Info().Str("order_id", id.String()).Msg("payment confirmed")
	return s.repo.GetOrder(ctx, id)
}

// CancellationInput carries everything the client entered across the
// cancellation flow steps.
type CancellationInput struct {
	Reason          cancellation.Reason
	Comment         string
	PickupMethod    cancellation.PickupMethod
	SelfPickupDate  *time.Time
	DeliveryDate    *time.Time
	DeliveryAddress string
}

// CancellationResult reports the refreshed order and, for the delivery
// branch, the payment redirect destination.
type CancellationResult struct {
	Order       *model.Order
	RedirectURL string
}

// RequestCancellation drives the whole cancellation flow for one submitted
// payload and persists the pending request. The delivery branch runs its
// strict chain; a failed step leaves cancel_status untouched.
func (s *OrderService) RequestCancellation(ctx context.Context, principal model.Principal, id uuid.UUID, input CancellationInput) (*CancellationResult, error) {
	order, err := s.GetOrder(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	gw := &cancelGateways{repo: s.repo, now: s.now}
	wf := cancellation.New(*order, principal, gw, gw, s.payments, s.now, s.log)

	if wf.Step() == cancellation.StepDebtBlocked {
		return nil, lifecycle.ErrDebtBlocksCancellation
	}

	if err := wf.ChooseReason(input.Reason, input.Comment); err != nil {
		return nil, err
	}

	if wf.Step() == cancellation.StepPickupMethod {
		if err := wf.ChoosePickupMethod(input.PickupMethod); err != nil {
			return nil, err
		}
		switch wf.Step() {
		case cancellation.StepSelfPickupDate:
			if err := wf.SetSelfPickupDate(input.SelfPickupDate); err != nil {
				return nil, err
			}
		case cancellation.StepDeliveryDetails:
			if input.DeliveryDate == nil {
				return nil, fmt.Errorf("%w: specify delivery date", model.ErrValidation)
			}
			if err := wf.SetDeliveryDetails(*input.DeliveryDate, input.DeliveryAddress); err != nil {
				return nil, err
			}
		}
	}

	result, err := wf.Submit(ctx)
	if err != nil {
		return nil, err
	}

	// The local snapshot is stale after the mutation; reload the aggregate.
	refreshed, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CancellationResult{Order: refreshed, RedirectURL: result.RedirectURL}, nil
}

// ApproveCancellation signs off a pending cancellation request. Admin only.
func (s *OrderService) ApproveCancellation(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Order, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.applyAndReload(ctx, principal, id, lifecycle.ActionApproveCancel)
}

// UnlockStorage releases the box of a fully cancelled order. No local state
// change beyond the collaborator call.
func (s *OrderService) UnlockStorage(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}
	order, err := s.GetOrder(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CanApplyErr(*order, lifecycle.ActionUnlockStorage); err != nil {
		return err
	}
	if err := s.warehouse.Unlock(ctx, order.ID); err != nil {
		return fmt.Errorf("unlock storage: %w", err)
	}
	s.log.Info().Str("order_id", id.String()).Msg("storage unlocked")
	return nil
}

// Delete removes an order that never started or has fully ended.
func (s *OrderService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	order, err := s.GetOrder(ctx, principal, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CanApplyErr(*order, lifecycle.ActionDelete); err != nil {
		return err
	}
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("order_id", id.String()).Msg("order deleted")
	return nil
}

// Extend prolongs an active rental by the given number of months.
func (s *OrderService) Extend(ctx context.Context, principal model.Principal, id uuid.UUID, months int, isExtended bool) (*model.Order, error) {
	if months <= 0 {
		return nil, fmt.Errorf("%w: months must be positive", ErrInvalidInput)
	}
	order, err := s.GetOrder(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	total := months
	if isExtended {
		if order.Status != model.OrderStatusActive {
			return nil, fmt.Errorf("%w: only active orders can be extended", lifecycle.ErrInvalidTransition)
		}
		total = order.Months + months
	}

	endDate := order.StartDate.AddDate(0, total, 0)
	if err := s.repo.UpdateExtension(ctx, id, total, endDate); err != nil {
		return nil, err
	}
	return s.repo.GetOrder(ctx, id)
}

// UpdateRequest is the full order edit submitted by the client.
type UpdateRequest struct {
	Items           []model.Item
	Services        []model.Service
	MovingOrders    []model.MovingOrder
	Months          int
	SelectedMoving  bool
	SelectedPackage bool
}

// UpdateWithServices validates and persists a full order edit. Service edits
// are merged with derived-field protection, tariff prices applied, and the
// synchronizer run before the single update write.
func (s *OrderService) UpdateWithServices(ctx context.Context, principal model.Principal, id uuid.UUID, req UpdateRequest) (*model.Order, error) {
	order, err := s.GetOrder(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, fmt.Errorf("%w: order can no longer be edited", lifecycle.ErrInvalidTransition)
	}

	tariffs, err := s.payments.GetPrices(ctx)
	if err != nil {
		return nil, err
	}

	services := logistics.MergeServiceEdits(order.Services, req.Services)
	services = logistics.ApplyTariffs(services, tariffs)
	movingOrders := logistics.EnsureReturnMoving(*order, req.MovingOrders, services)

	months := req.Months
	if months <= 0 {
		months = order.Months
	}

	draft := editor.Draft{
		Order:           *order,
		Items:           req.Items,
		Services:        services,
		MovingOrders:    movingOrders,
		Months:          months,
		SelectedMoving:  req.SelectedMoving,
		SelectedPackage: req.SelectedPackage,
	}

	ed := editor.New(&orderUpdater{repo: s.repo, order: *order, tariffs: tariffs})
	if err := ed.Submit(ctx, draft); err != nil {
		return nil, err
	}
	return s.repo.GetOrder(ctx, id)
}

// SetDelivery toggles return delivery on the order. Enabling appends the
// delivery service and synthesizes its pending-return moving order with the
// default date and a blank address; disabling removes both.
func (s *OrderService) SetDelivery(ctx context.Context, principal model.Principal, id uuid.UUID, enabled bool) (*model.Order, error) {
	order, err := s.GetOrder(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, fmt.Errorf("%w: order can no longer be edited", lifecycle.ErrInvalidTransition)
	}

	var next model.Order
	if enabled {
		tariffs, err := s.payments.GetPrices(ctx)
		if err != nil {
			return nil, err
		}
		next = logistics.AddDelivery(*order)
		next.Services = logistics.ApplyTariffs(next.Services, tariffs)
	} else {
		next = logistics.RemoveDelivery(*order)
	}
	next.IsSelectedMoving = len(next.MovingOrders) > 0 || next.HasService(model.ServiceTypeGazelleTo)
	next.TotalPrice = next.TotalPayable()

	if err := s.repo.ReplaceCollections(ctx, next); err != nil {
		return nil, err
	}
	return s.repo.GetOrder(ctx, id)
}

// AutoCancelStatus is the countdown snapshot reported to the client.
type AutoCancelStatus struct {
	State            countdown.State
	RemainingSeconds int64
	Deadline         *time.Time
}

// AutoCancelRemaining reports the countdown for the order at this instant.
func (s *OrderService) AutoCancelRemaining(ctx context.Context, principal model.Principal, id uuid.UUID) (*AutoCancelStatus, error) {
	order, err := s.GetOrder(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	left, state := countdown.Remaining(*order, s.now(), s.grace)
	status := &AutoCancelStatus{
		State:            state,
		RemainingSeconds: int64(left / time.Second),
	}
	if state != countdown.StateNotApplicable {
		deadline := countdown.Deadline(*order, s.grace)
		status.Deadline = &deadline
	}
	return status, nil
}

// applyAndReload runs one state-machine action and returns the reloaded
// aggregate.
func (s *OrderService) applyAndReload(ctx context.Context, principal model.Principal, id uuid.UUID, action lifecycle.Action) (*model.Order, error) {
	order, err := s.GetOrder(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Apply(*order, action)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveState(ctx, next); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("order_id", id.String()).
		Str("action", string(action)).
		Str("status", string(next.Status)).
		Msg("order transitioned")
	return s.repo.GetOrder(ctx, id)
}

// cancelGateways adapts the repository to the collaborator interfaces the
// cancellation workflow consumes.
type cancelGateways struct {
	repo OrderStore
	now  func() time.Time
}

func (g *cancelGateways) CancelContract(ctx context.Context, req cancellation.CancelRequest) error {
	return g.cancel(ctx, req)
}

func (g *cancelGateways) CancelOrder(ctx context.Context, req cancellation.CancelRequest) error {
	return g.cancel(ctx, req)
}

func (g *cancelGateways) cancel(ctx context.Context, req cancellation.CancelRequest) error {
	order, err := g.repo.GetOrder(ctx, req.OrderID)
	if err != nil {
		return err
	}
	next, err := lifecycle.Apply(*order, lifecycle.ActionRequestCancel)
	if err != nil {
		return err
	}
	next.CancelReason = string(req.Reason)
	next.CancelComment = req.Comment
	next.SelfPickupDate = req.SelfPickupDate
	return g.repo.SaveState(ctx, next)
}

func (g *cancelGateways) CreateMoving(ctx context.Context, in cancellation.CreateMovingInput) (model.MovingOrder, error) {
	created, err := g.repo.InsertMoving(ctx, model.MovingOrder{
		OrderID:    in.OrderID,
		Status:     in.Status,
		MovingDate: in.MovingDate,
		Address:    in.Address,
		Direction:  in.Direction,
	})
	if err != nil {
		return model.MovingOrder{}, err
	}

	// A pending return must carry its transport line item.
	order, err := g.repo.GetOrder(ctx, in.OrderID)
	if err != nil {
		return model.MovingOrder{}, err
	}
	if !order.HasService(model.ServiceTypeGazelleTo) {
		if _, err := g.repo.InsertService(ctx, in.OrderID, model.Service{
			Type:  model.ServiceTypeGazelleTo,
			Count: 1,
		}); err != nil {
			return model.MovingOrder{}, err
		}
	}
	return created, nil
}

// orderUpdater persists the assembled edit in one transactional write and
// recomputes the stored total.
type orderUpdater struct {
	repo    OrderStore
	order   model.Order
	tariffs []model.Tariff
}

func (u *orderUpdater) UpdateOrderWithServices(ctx context.Context, in editor.UpdateInput) error {
	next := u.order
	next.Items = in.Items
	next.Services = logistics.ApplyTariffs(in.Services, u.tariffs)
	next.MovingOrders = in.MovingOrders
	next.Months = in.Months
	next.EndDate = next.StartDate.AddDate(0, in.Months, 0)
	next.IsSelectedMoving = in.IsSelectedMoving
	next.IsSelectedPackage = in.IsSelectedPackage
	next.TotalPrice = next.TotalPayable()
	return u.repo.ReplaceCollections(ctx, next)
}
