package service

import (
	"testing"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.56, Round2(10.555))
	assert.Equal(t, 10.55, Round2(10.554))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, -2.35, Round2(-2.345))
}

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name     string
		order    model.Order
		expected float64
	}{
		{
			name: "default tax on plain subtotal",
			order: model.Order{
				TaxRate: 13,
				OrderItems: []model.OrderItem{
					{Price: 1000, Quantity: 1},
				},
			},
			expected: 1130,
		},
		{
			name: "tax applies after discount",
			order: model.Order{
				TaxRate:        13,
				DiscountAmount: 200,
				OrderItems: []model.OrderItem{
					{Price: 500, Quantity: 2},
				},
			},
			expected: 800 + 104,
		},
		{
			name: "delivery and service charges are not taxed",
			order: model.Order{
				TaxRate:       13,
				DeliveryFee:   100,
				ServiceCharge: 50,
				OrderItems: []model.OrderItem{
					{Price: 1000, Quantity: 1},
				},
			},
			expected: 1130 + 150,
		},
		{
			name: "discount larger than subtotal clamps to zero",
			order: model.Order{
				TaxRate:        13,
				DiscountAmount: 2000,
				DeliveryFee:    100,
				OrderItems: []model.OrderItem{
					{Price: 500, Quantity: 1},
				},
			},
			expected: 100,
		},
		{
			name: "fractional prices round per component",
			order: model.Order{
				TaxRate: 13,
				OrderItems: []model.OrderItem{
					{Price: 33.335, Quantity: 3},
				},
			},
			expected: Round2(100.005) + Round2(100.005*0.13),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ComputeTotal(&tt.order), AmountTolerance)
		})
	}
}

func TestAmountsMatch(t *testing.T) {
	assert.True(t, AmountsMatch(100.00, 100.009))
	assert.True(t, AmountsMatch(100.00, 99.995))
	assert.False(t, AmountsMatch(100.00, 100.02))
	assert.False(t, AmountsMatch(100.00, 99.0))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1130", FormatAmount(1130.0))
	assert.Equal(t, "99.5", FormatAmount(99.50))
	assert.Equal(t, "10.56", FormatAmount(10.555))
}
