package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/storebox-portal/internal/model"
)

func order(status model.OrderStatus, payment model.PaymentStatus, contract model.ContractStatus, cancel model.CancelStatus) model.Order {
	return model.Order{
		Status:         status,
		PaymentStatus:  payment,
		ContractStatus: contract,
		CancelStatus:   cancel,
	}
}

func TestApplyHappyPath(t *testing.T) {
	o := order(model.OrderStatusInactive, model.PaymentStatusUnpaid, model.ContractStatusUnsigned, model.CancelStatusNo)

	o, err := Apply(o, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusApproved, o.Status)

	o, err = Apply(o, ActionSignContract)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, o.Status)
	assert.Equal(t, model.ContractStatusSigned, o.ContractStatus)

	o, err = Apply(o, ActionPay)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusActive, o.Status)
	assert.Equal(t, model.PaymentStatusPaid, o.PaymentStatus)

	o, err = Apply(o, ActionRequestCancel)
	require.NoError(t, err)
	assert.Equal(t, model.CancelStatusPending, o.CancelStatus)
	assert.Equal(t, model.OrderStatusActive, o.Status)

	o, err = Apply(o, ActionApproveCancel)
	require.NoError(t, err)
	assert.Equal(t, model.CancelStatusSigned, o.CancelStatus)
	assert.Equal(t, model.OrderStatusCanceled, o.Status)

	_, err = Apply(o, ActionUnlockStorage)
	require.NoError(t, err)
}

func TestApplyGuards(t *testing.T) {
	testCases := []struct {
		name   string
		order  model.Order
		action Action
		want   error
	}{
		{
			name:   "approve requires inactive order",
			order:  order(model.OrderStatusActive, model.PaymentStatusPaid, model.ContractStatusSigned, model.CancelStatusNo),
			action: ActionApprove,
			want:   ErrInvalidTransition,
		},
		{
			name:   "contract cannot be signed before approval",
			order:  order(model.OrderStatusInactive, model.PaymentStatusUnpaid, model.ContractStatusUnsigned, model.CancelStatusNo),
			action: ActionSignContract,
			want:   ErrInvalidTransition,
		},
		{
			name:   "payment requires a signed contract",
			order:  order(model.OrderStatusProcessing, model.PaymentStatusUnpaid, model.ContractStatusUnsigned, model.CancelStatusNo),
			action: ActionPay,
			want:   ErrInvalidTransition,
		},
		{
			name:   "payment requires processing status",
			order:  order(model.OrderStatusApproved, model.PaymentStatusUnpaid, model.ContractStatusSigned, model.CancelStatusNo),
			action: ActionPay,
			want:   ErrInvalidTransition,
		},
		{
			name:   "cancellation requires active order",
			order:  order(model.OrderStatusProcessing, model.PaymentStatusPaid, model.ContractStatusSigned, model.CancelStatusNo),
			action: ActionRequestCancel,
			want:   ErrInvalidTransition,
		},
		{
			name:   "cancellation cannot be requested twice",
			order:  order(model.OrderStatusActive, model.PaymentStatusPaid, model.ContractStatusSigned, model.CancelStatusPending),
			action: ActionRequestCancel,
			want:   ErrInvalidTransition,
		},
		{
			name:   "unpaid debt blocks cancellation",
			order:  order(model.OrderStatusActive, model.PaymentStatusUnpaid, model.ContractStatusSigned, model.CancelStatusNo),
			action: ActionRequestCancel,
			want:   ErrDebtBlocksCancellation,
		},
		{
			name:   "cancel approval requires a pending request",
			order:  order(model.OrderStatusActive, model.PaymentStatusPaid, model.ContractStatusSigned, model.CancelStatusNo),
			action: ActionApproveCancel,
			want:   ErrInvalidTransition,
		},
		{
			name:   "storage unlock requires a signed cancellation",
			order:  order(model.OrderStatusCanceled, model.PaymentStatusPaid, model.ContractStatusSigned, model.CancelStatusPending),
			action: ActionUnlockStorage,
			want:   ErrInvalidTransition,
		},
		{
			name:   "active order cannot be deleted",
			order:  order(model.OrderStatusActive, model.PaymentStatusPaid, model.ContractStatusSigned, model.CancelStatusNo),
			action: ActionDelete,
			want:   ErrInvalidTransition,
		},
		{
			name:   "unknown action is rejected",
			order:  order(model.OrderStatusActive, model.PaymentStatusPaid, model.ContractStatusSigned, model.CancelStatusNo),
			action: Action("EXPLODE"),
			want:   ErrUnknownAction,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Apply(tc.order, tc.action)
			assert.ErrorIs(t, err, tc.want)
			assert.False(t, CanApply(tc.order, tc.action))
		})
	}
}

func TestDeleteAllowedStates(t *testing.T) {
	for _, status := range []model.OrderStatus{model.OrderStatusInactive, model.OrderStatusCanceled, model.OrderStatusFinished} {
		o := order(status, model.PaymentStatusUnpaid, model.ContractStatusUnsigned, model.CancelStatusNo)
		assert.True(t, CanApply(o, ActionDelete), "delete from %s", status)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	o := order(model.OrderStatusInactive, model.PaymentStatusUnpaid, model.ContractStatusUnsigned, model.CancelStatusNo)
	_, err := Apply(o, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusInactive, o.Status)
}
