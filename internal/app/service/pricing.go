package service

import (
	"math"
	"strconv"

	"github.com/kinmel-dev/kinmel-backend/internal/app/model"
)

// AmountTolerance is the maximum difference tolerated when correlating a
// gateway-reported amount with the locally computed total.
const AmountTolerance = 0.01

// Round2 rounds to two decimal places. Every monetary figure that leaves the
// service layer passes through here.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotal derives the payable total from the order's items and charges.
// Tax applies to the discounted subtotal, not to delivery or service charges.
func ComputeTotal(order *model.Order) float64 {
	subtotal := order.Subtotal()
	taxable := subtotal - order.DiscountAmount
	if taxable < 0 {
		taxable = 0
	}
	tax := taxable * order.TaxRate / 100
	return Round2(taxable) + Round2(tax) + order.DeliveryFee + order.ServiceCharge
}

// AmountsMatch compares two monetary values within AmountTolerance.
func AmountsMatch(a, b float64) bool {
	return math.Abs(a-b) <= AmountTolerance
}

// FormatAmount renders an amount the way gateways expect it in signed fields.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', -1, 64)
}
