package sanitizer

import "math"

// RoundMoney rounds an amount to two decimal places, matching how totals are
// stored on bookings.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ClampQuantity normalizes a requested quantity to at least 1.
func ClampQuantity(qty int64) int64 {
	if qty < 1 {
		return 1
	}
	return qty
}
