// Package policy evaluates whether a voucher may be applied to an order and
// computes the resulting discount. It is purely functional: callers pass the
// voucher snapshot and the clock, and the atomic quota reservation happens
// elsewhere.
package policy

import (
	"time"

	"stayvoucher/pkg/model"
)

// Reason identifies why a voucher was rejected. Surfaced verbatim in the
// error details so clients can branch on it.
type Reason string

const (
	ReasonInactive              Reason = "inactive"
	ReasonNotYetValid           Reason = "not_yet_valid"
	ReasonExpired               Reason = "expired"
	ReasonHotelNotApplicable    Reason = "hotel_not_applicable"
	ReasonUsageLimitReached     Reason = "usage_limit_reached"
	ReasonPerSubjectLimit       Reason = "per_subject_limit_reached"
	ReasonMinOrderValue         Reason = "min_order_value"
)

// Rejection pairs a machine reason with a human message.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func reject(reason Reason, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}

// Input carries everything Validate needs besides the voucher itself.
type Input struct {
	Now         time.Time
	HotelID     string // resolved hotel, empty when none applies
	SubjectID   string
	Quantity    int64
	OrderAmount float64 // pre-discount order value
}

// Validate runs the policy checks in a fixed order and returns the first
// rejection, or nil when the voucher is usable. The order is observable
// through the rejection reason, so it must not change: status, validity
// window, hotel scope, global cap, per-subject cap, minimum order value.
//
// A nil result is only a snapshot-time opinion; the reservation step re-checks
// both caps atomically.
func Validate(v *model.Voucher, in Input) *Rejection {
	if v.Status != model.VoucherStatusActive {
		return reject(ReasonInactive, "voucher is not active")
	}
	if in.Now.Before(v.ValidFrom) {
		return reject(ReasonNotYetValid, "voucher is not valid yet")
	}
	if in.Now.After(v.ValidTo) {
		return reject(ReasonExpired, "voucher has expired")
	}
	if len(v.ApplicableHotels) > 0 && !hotelApplies(v.ApplicableHotels, in.HotelID) {
		return reject(ReasonHotelNotApplicable, "voucher is not applicable to this hotel")
	}
	if v.UsageLimit > 0 && v.UsedCount+in.Quantity > v.UsageLimit {
		return reject(ReasonUsageLimitReached, "voucher usage limit reached")
	}
	if v.PerSubjectLimit > 0 {
		var used int64
		if u := v.UsageFor(in.SubjectID); u != nil {
			used = u.Count
		}
		if used+in.Quantity > v.PerSubjectLimit {
			return reject(ReasonPerSubjectLimit, "per-subject usage limit reached")
		}
	}
	if v.MinOrderValue > 0 && in.OrderAmount < v.MinOrderValue {
		return reject(ReasonMinOrderValue, "order amount is below the voucher minimum")
	}
	return nil
}

func hotelApplies(hotels []string, hotelID string) bool {
	if hotelID == "" {
		return false
	}
	for _, h := range hotels {
		if h == hotelID {
			return true
		}
	}
	return false
}

// ComputeDiscount returns the discount amount for the given order value.
// Fixed vouchers discount min(value, max_discount, amount); percentage
// vouchers discount min(amount*value/100, max_discount, amount). The result
// never exceeds the order amount and is never negative.
func ComputeDiscount(v *model.Voucher, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	var discount float64
	switch v.DiscountType {
	case model.DiscountTypeFixed:
		discount = v.DiscountValue
	case model.DiscountTypePercentage:
		discount = amount * v.DiscountValue / 100
	default:
		return 0
	}
	if v.MaxDiscount != nil && discount > *v.MaxDiscount {
		discount = *v.MaxDiscount
	}
	if discount > amount {
		discount = amount
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// FinalAmount applies the computed discount to the order amount.
func FinalAmount(v *model.Voucher, amount float64) float64 {
	return amount - ComputeDiscount(v, amount)
}
