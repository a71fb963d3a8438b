package cancellation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/storebox-portal/internal/lifecycle"
	"github.com/nurpe/storebox-portal/internal/model"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func nowFn() time.Time { return testNow }

type fakeGateways struct {
	calls []string

	cancelContracts []CancelRequest
	cancelOrders    []CancelRequest
	movingInputs    []CreateMovingInput
	paymentOrders   []uuid.UUID

	cancelErr  error
	movingErr  error
	paymentErr error
}

func (f *fakeGateways) CancelContract(_ context.Context, req CancelRequest) error {
	f.calls = append(f.calls, "cancel_contract")
	f.cancelContracts = append(f.cancelContracts, req)
	return f.cancelErr
}

func (f *fakeGateways) CancelOrder(_ context.Context, req CancelRequest) error {
	f.calls = append(f.calls, "cancel_order")
	f.cancelOrders = append(f.cancelOrders, req)
	return f.cancelErr
}

func (f *fakeGateways) CreateMoving(_ context.Context, in CreateMovingInput) (model.MovingOrder, error) {
	f.calls = append(f.calls, "create_moving")
	f.movingInputs = append(f.movingInputs, in)
	if f.movingErr != nil {
		return model.MovingOrder{}, f.movingErr
	}
	return model.MovingOrder{
		ID:         uuid.New(),
		OrderID:    in.OrderID,
		Status:     in.Status,
		Direction:  in.Direction,
		MovingDate: in.MovingDate,
		Address:    in.Address,
	}, nil
}

func (f *fakeGateways) CreateAdditionalServicePayment(_ context.Context, orderID uuid.UUID, _ model.ServiceType) (string, error) {
	f.calls = append(f.calls, "create_payment")
	f.paymentOrders = append(f.paymentOrders, orderID)
	if f.paymentErr != nil {
		return "", f.paymentErr
	}
	return "https://pay.example.kz/redirect", nil
}

func activeOrder() model.Order {
	return model.Order{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Status:         model.OrderStatusActive,
		PaymentStatus:  model.PaymentStatusPaid,
		ContractStatus: model.ContractStatusSigned,
		CancelStatus:   model.CancelStatusNo,
		CreatedAt:      testNow.Add(-72 * time.Hour),
		Contracts: []model.Contract{
			{ID: uuid.New(), DocumentID: "doc-77", Status: model.ContractStatusSigned, CreatedAt: testNow.Add(-71 * time.Hour)},
		},
	}
}

func newTestWorkflow(o model.Order, gw *fakeGateways) *Workflow {
	return New(o, model.Principal{UserID: o.UserID, Role: model.RoleCustomer}, gw, gw, gw, nowFn, zerolog.Nop())
}

func TestUnpaidOrderIsBlockedWithoutNetworkCalls(t *testing.T) {
	o := activeOrder()
	o.PaymentStatus = model.PaymentStatusUnpaid
	gw := &fakeGateways{}

	w := newTestWorkflow(o, gw)

	assert.Equal(t, StepDebtBlocked, w.Step())
	assert.Error(t, w.ChooseReason(ReasonMoving, ""))
	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrStepOrder)
	assert.Empty(t, gw.calls)
}

func TestSelfPickupSubmitsSingleCancelCall(t *testing.T) {
	o := activeOrder()
	gw := &fakeGateways{}
	w := newTestWorkflow(o, gw)

	require.True(t, w.NeedsPickupMethod())
	require.NoError(t, w.ChooseReason(ReasonTooExpensive, ""))
	require.NoError(t, w.ChoosePickupMethod(PickupSelf))
	tomorrow := testNow.AddDate(0, 0, 1)
	require.NoError(t, w.SetSelfPickupDate(&tomorrow))

	result, err := w.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"cancel_contract"}, gw.calls)
	require.Len(t, gw.cancelContracts, 1)
	req := gw.cancelContracts[0]
	assert.Equal(t, o.ID, req.OrderID)
	assert.Equal(t, "doc-77", req.DocumentID)
	assert.Equal(t, ReasonTooExpensive, req.Reason)
	assert.Equal(t, "", req.Comment)
	require.NotNil(t, req.SelfPickupDate)
	assert.Equal(t, tomorrow, *req.SelfPickupDate)

	assert.Equal(t, model.CancelStatusPending, result.Order.CancelStatus)
	assert.Equal(t, "", result.RedirectURL)
	assert.Equal(t, StepDone, w.Step())
}

func TestSelfPickupDateIsOptional(t *testing.T) {
	gw := &fakeGateways{}
	w := newTestWorkflow(activeOrder(), gw)

	require.NoError(t, w.ChooseReason(ReasonNoLongerNeed, ""))
	require.NoError(t, w.ChoosePickupMethod(PickupSelf))
	require.NoError(t, w.SetSelfPickupDate(nil))

	result, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Nil(t, gw.cancelContracts[0].SelfPickupDate)
	assert.Equal(t, model.CancelStatusPending, result.Order.CancelStatus)
}

func TestSelfPickupDateInPastRejected(t *testing.T) {
	w := newTestWorkflow(activeOrder(), &fakeGateways{})
	require.NoError(t, w.ChooseReason(ReasonMoving, ""))
	require.NoError(t, w.ChoosePickupMethod(PickupSelf))

	yesterday := testNow.AddDate(0, 0, -1)
	err := w.SetSelfPickupDate(&yesterday)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDeliveryChainRunsInOrder(t *testing.T) {
	o := activeOrder()
	gw := &fakeGateways{}
	w := newTestWorkflow(o, gw)

	require.NoError(t, w.ChooseReason(ReasonMoving, ""))
	require.NoError(t, w.ChoosePickupMethod(PickupDelivery))
	deliveryDate := testNow.AddDate(0, 0, 3)
	require.NoError(t, w.SetDeliveryDetails(deliveryDate, "ул. Сатпаева 22"))

	result, err := w.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"create_moving", "create_payment", "cancel_contract"}, gw.calls)
	require.Len(t, gw.movingInputs, 1)
	in := gw.movingInputs[0]
	assert.Equal(t, o.ID, in.OrderID)
	assert.Equal(t, model.MovingStatusPendingTo, in.Status)
	assert.Equal(t, model.DirectionToClient, in.Direction)
	assert.Equal(t, deliveryDate, in.MovingDate)
	assert.Equal(t, "ул. Сатпаева 22", in.Address)

	assert.Equal(t, "https://pay.example.kz/redirect", result.RedirectURL)
	assert.Equal(t, model.CancelStatusPending, result.Order.CancelStatus)
	assert.True(t, result.Order.HasMovingWithStatus(model.MovingStatusPendingTo))
}

func TestDeliveryChainShortCircuitsOnMovingFailure(t *testing.T) {
	gw := &fakeGateways{movingErr: errors.New("warehouse is down")}
	w := newTestWorkflow(activeOrder(), gw)

	require.NoError(t, w.ChooseReason(ReasonMoving, ""))
	require.NoError(t, w.ChoosePickupMethod(PickupDelivery))
	require.NoError(t, w.SetDeliveryDetails(testNow.AddDate(0, 0, 1), "ул. Сатпаева 22"))

	_, err := w.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"create_moving"}, gw.calls, "payment and submit must not run")
	assert.Equal(t, StepReadyToSubmit, w.Step(), "flow stays retryable")
}

func TestDeliveryChainShortCircuitsOnPaymentFailure(t *testing.T) {
	gw := &fakeGateways{paymentErr: errors.New("provider rejected")}
	w := newTestWorkflow(activeOrder(), gw)

	require.NoError(t, w.ChooseReason(ReasonMoving, ""))
	require.NoError(t, w.ChoosePickupMethod(PickupDelivery))
	require.NoError(t, w.SetDeliveryDetails(testNow.AddDate(0, 0, 1), "ул. Сатпаева 22"))

	_, err := w.Submit(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"create_moving", "create_payment"}, gw.calls)
	assert.Equal(t, StepReadyToSubmit, w.Step())
}

func TestDeliveryRetryReusesCreatedMovingOrder(t *testing.T) {
	gw := &fakeGateways{paymentErr: errors.New("provider rejected")}
	w := newTestWorkflow(activeOrder(), gw)

	require.NoError(t, w.ChooseReason(ReasonMoving, ""))
	require.NoError(t, w.ChoosePickupMethod(PickupDelivery))
	require.NoError(t, w.SetDeliveryDetails(testNow.AddDate(0, 0, 1), "ул. Сатпаева 22"))

	_, err := w.Submit(context.Background())
	require.Error(t, err)

	gw.paymentErr = nil
	result, err := w.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"create_moving", "create_payment", "create_payment", "cancel_contract"}, gw.calls)
	require.Len(t, gw.movingInputs, 1, "second attempt must not create another moving order")

	pending := 0
	for _, m := range result.Order.MovingOrders {
		if m.Status == model.MovingStatusPendingTo {
			pending++
		}
	}
	assert.Equal(t, 1, pending)
	assert.Equal(t, model.CancelStatusPending, result.Order.CancelStatus)
}

func TestExistingReturnLogisticsSkipsPickupMethod(t *testing.T) {
	o := activeOrder()
	o.Services = []model.Service{{ID: uuid.New(), Type: model.ServiceTypeGazelleTo, Count: 1}}
	o.MovingOrders = []model.MovingOrder{{ID: uuid.New(), Status: model.MovingStatusPendingTo, Address: "пр. Абая 10"}}
	gw := &fakeGateways{}
	w := newTestWorkflow(o, gw)

	assert.False(t, w.NeedsPickupMethod())
	require.NoError(t, w.ChooseReason(ReasonPoorService, ""))
	assert.Equal(t, StepReadyToSubmit, w.Step())

	result, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel_contract"}, gw.calls)
	assert.Equal(t, "", result.RedirectURL)
}

func TestOtherReasonRequiresComment(t *testing.T) {
	w := newTestWorkflow(activeOrder(), &fakeGateways{})
	require.NoError(t, w.ChooseReason(ReasonOther, "   "))
	require.NoError(t, w.ChoosePickupMethod(PickupSelf))
	require.NoError(t, w.SetSelfPickupDate(nil))

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUnsignedOrderFallsBackToCancelOrder(t *testing.T) {
	o := activeOrder()
	o.Contracts = nil
	gw := &fakeGateways{}
	w := newTestWorkflow(o, gw)

	require.NoError(t, w.ChooseReason(ReasonNoLongerNeed, ""))
	require.NoError(t, w.ChoosePickupMethod(PickupSelf))
	require.NoError(t, w.SetSelfPickupDate(nil))

	_, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cancel_order"}, gw.calls)
	assert.Equal(t, "", gw.cancelOrders[0].DocumentID)
}

func TestPendingCancellationCannotSubmitAgain(t *testing.T) {
	o := activeOrder()
	o.CancelStatus = model.CancelStatusPending
	gw := &fakeGateways{}
	w := newTestWorkflow(o, gw)

	require.NoError(t, w.ChooseReason(ReasonMoving, ""))
	require.NoError(t, w.ChoosePickupMethod(PickupSelf))
	require.NoError(t, w.SetSelfPickupDate(nil))

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
	assert.Empty(t, gw.calls)
}

func TestStepsEnforceOrder(t *testing.T) {
	w := newTestWorkflow(activeOrder(), &fakeGateways{})

	assert.ErrorIs(t, w.ChoosePickupMethod(PickupSelf), ErrStepOrder)
	assert.ErrorIs(t, w.SetSelfPickupDate(nil), ErrStepOrder)
	assert.ErrorIs(t, w.SetDeliveryDetails(testNow, "addr"), ErrStepOrder)

	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrStepOrder)

	require.NoError(t, w.ChooseReason(ReasonMoving, ""))
	assert.ErrorIs(t, w.ChooseReason(ReasonMoving, ""), ErrStepOrder)
}

func TestUnknownReasonRejected(t *testing.T) {
	w := newTestWorkflow(activeOrder(), &fakeGateways{})
	assert.ErrorIs(t, w.ChooseReason(Reason("because"), ""), model.ErrValidation)
	assert.Equal(t, StepReasonSelection, w.Step())
}
