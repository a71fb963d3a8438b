package countdown

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nurpe/storebox-portal/internal/model"
)

var baseTime = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func signedOrder(signedAgo time.Duration) model.Order {
	return model.Order{
		Status:         model.OrderStatusProcessing,
		PaymentStatus:  model.PaymentStatusUnpaid,
		ContractStatus: model.ContractStatusSigned,
		CreatedAt:      baseTime.Add(-24 * time.Hour),
		Contracts: []model.Contract{
			{Status: model.ContractStatusSigned, DocumentID: "doc-1", CreatedAt: baseTime.Add(-signedAgo)},
		},
	}
}

func TestRemaining(t *testing.T) {
	testCases := []struct {
		name      string
		order     model.Order
		wantState State
		wantLeft  time.Duration
	}{
		{
			name:      "half the window left",
			order:     signedOrder(30 * time.Minute),
			wantState: StateRunning,
			wantLeft:  30 * time.Minute,
		},
		{
			name:      "one second past the deadline",
			order:     signedOrder(time.Hour + time.Second),
			wantState: StateExpired,
		},
		{
			name:      "exactly at the deadline",
			order:     signedOrder(time.Hour),
			wantState: StateExpired,
		},
		{
			name: "paid order is outside the window",
			order: func() model.Order {
				o := signedOrder(30 * time.Minute)
				o.PaymentStatus = model.PaymentStatusPaid
				o.Status = model.OrderStatusActive
				return o
			}(),
			wantState: StateNotApplicable,
		},
		{
			name: "unsigned contract is outside the window",
			order: model.Order{
				Status:         model.OrderStatusApproved,
				PaymentStatus:  model.PaymentStatusUnpaid,
				ContractStatus: model.ContractStatusUnsigned,
			},
			wantState: StateNotApplicable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			left, state := Remaining(tc.order, baseTime, DefaultGrace)
			assert.Equal(t, tc.wantState, state)
			assert.Equal(t, tc.wantLeft, left)
		})
	}
}

func TestDeadlineFallsBackToCreation(t *testing.T) {
	o := model.Order{
		Status:         model.OrderStatusProcessing,
		PaymentStatus:  model.PaymentStatusUnpaid,
		ContractStatus: model.ContractStatusSigned,
		CreatedAt:      baseTime,
	}
	assert.Equal(t, baseTime.Add(DefaultGrace), Deadline(o, DefaultGrace))
}

func TestDeadlineUsesEarliestSignedContract(t *testing.T) {
	o := signedOrder(10 * time.Minute)
	o.Contracts = append(o.Contracts, model.Contract{
		Status:     model.ContractStatusSigned,
		DocumentID: "doc-2",
		CreatedAt:  baseTime.Add(-40 * time.Minute),
	})
	assert.Equal(t, baseTime.Add(-40*time.Minute).Add(DefaultGrace), Deadline(o, DefaultGrace))
}

func TestWatcherReportsImmediatelyAndStopsOnExpiry(t *testing.T) {
	var mu sync.Mutex
	current := baseTime
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}
	w := NewWatcher(now, DefaultGrace, time.Millisecond)
	defer w.Stop()

	ticks := make(chan State, 16)
	w.Watch(signedOrder(30*time.Minute), func(_ time.Duration, s State) {
		select {
		case ticks <- s:
		default:
		}
	})

	assert.Equal(t, StateRunning, <-ticks)

	mu.Lock()
	current = baseTime.Add(2 * time.Hour)
	mu.Unlock()
	deadline := time.After(time.Second)
	for {
		select {
		case s := <-ticks:
			if s == StateExpired {
				return
			}
		case <-deadline:
			t.Fatal("watcher never reported expiry")
		}
	}
}

func TestWatcherNotApplicableStopsImmediately(t *testing.T) {
	w := NewWatcher(func() time.Time { return baseTime }, DefaultGrace, time.Millisecond)
	defer w.Stop()

	var got State
	w.Watch(model.Order{Status: model.OrderStatusActive, PaymentStatus: model.PaymentStatusPaid}, func(_ time.Duration, s State) {
		got = s
	})
	assert.Equal(t, StateNotApplicable, got)
}
