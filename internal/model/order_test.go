package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPayable(t *testing.T) {
	testCases := []struct {
		name  string
		order Order
		want  float64
	}{
		{
			name:  "rental only",
			order: Order{RentalPrice: 45000},
			want:  45000,
		},
		{
			name: "rental plus services minus discount",
			order: Order{
				RentalPrice:    45000,
				DiscountAmount: 5000,
				Services: []Service{
					{Type: ServiceTypeGazelleTo, TotalPrice: 5000},
					{Type: ServiceTypeBox, TotalPrice: 1200},
				},
			},
			want: 46200,
		},
		{
			name:  "discount larger than the bill clamps to zero",
			order: Order{RentalPrice: 1000, DiscountAmount: 5000},
			want:  0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.order.TotalPayable())
		})
	}
}

func TestSignedAt(t *testing.T) {
	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	o := Order{CreatedAt: created}
	assert.Equal(t, created, o.SignedAt(), "no contracts falls back to creation")

	o.Contracts = []Contract{
		{Status: ContractStatusUnsigned, CreatedAt: created.Add(time.Hour)},
	}
	assert.Equal(t, created, o.SignedAt(), "unsigned contracts are ignored")

	o.Contracts = append(o.Contracts,
		Contract{Status: ContractStatusSigned, CreatedAt: created.Add(3 * time.Hour)},
		Contract{Status: ContractStatusSigned, CreatedAt: created.Add(2 * time.Hour)},
	)
	assert.Equal(t, created.Add(2*time.Hour), o.SignedAt(), "earliest signed contract wins")
}

func TestSignedContract(t *testing.T) {
	o := Order{Contracts: []Contract{
		{Status: ContractStatusSigned, DocumentID: ""},
		{Status: ContractStatusSigned, DocumentID: "doc-9"},
	}}

	contract := o.SignedContract()
	require.NotNil(t, contract)
	assert.Equal(t, "doc-9", contract.DocumentID)

	assert.Nil(t, Order{}.SignedContract())
}

func TestItemComputeVolume(t *testing.T) {
	testCases := []struct {
		name string
		item Item
		want float64
	}{
		{name: "whole cube", item: Item{Length: 1, Width: 1, Height: 1}, want: 1},
		{name: "rounds up", item: Item{Length: 1.006, Width: 1, Height: 1}, want: 1.01},
		{name: "rounds down", item: Item{Length: 0.333, Width: 1, Height: 1}, want: 0.33},
		{name: "zero dimension", item: Item{Length: 0, Width: 2, Height: 2}, want: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.item.ComputeVolume())
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, Order{Status: OrderStatusCanceled}.IsTerminal())
	assert.True(t, Order{Status: OrderStatusFinished}.IsTerminal())
	assert.False(t, Order{Status: OrderStatusActive}.IsTerminal())
}

func TestPrincipalAccess(t *testing.T) {
	owner := Principal{UserID: uuid.New(), Role: RoleCustomer}
	admin := Principal{UserID: uuid.New(), Role: RoleAdmin}
	stranger := Principal{UserID: uuid.New(), Role: RoleCustomer}

	o := Order{UserID: owner.UserID}

	assert.True(t, owner.CanAccessOrder(o))
	assert.True(t, admin.CanAccessOrder(o))
	assert.False(t, stranger.CanAccessOrder(o))
}
