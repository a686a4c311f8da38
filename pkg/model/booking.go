package model

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusPaid      = "paid"
	BookingStatusCancelled = "cancelled"
)

// Booking is a persisted order for voucher units against a hotel. Total is
// fixed at creation time; status transitions happen through UpdateStatus only.
type Booking struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	SubjectID    string    `json:"subject_id" bson:"subject_id"`
	HotelID      string    `json:"hotel_id,omitempty" bson:"hotel_id,omitempty"`
	VoucherID    string    `json:"voucher_id" bson:"voucher_id"`
	AgentID      string    `json:"agent_id,omitempty" bson:"agent_id,omitempty"`
	ReferralCode string    `json:"referral_code,omitempty" bson:"referral_code,omitempty"`
	Quantity     int64     `json:"quantity" bson:"quantity"`
	UnitPrice    float64   `json:"unit_price" bson:"unit_price"`
	Total        float64   `json:"total" bson:"total"`
	Status       string    `json:"status" bson:"status"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// BookingRequest is the create payload. HotelID is optional when the voucher
// is scoped to exactly one hotel; PriceOverride takes precedence over the
// voucher price.
type BookingRequest struct {
	VoucherID     string   `json:"voucher_id" validate:"required,mongodb"`
	HotelID       string   `json:"hotel_id,omitempty" validate:"omitempty,mongodb"`
	Quantity      int64    `json:"quantity" validate:"omitempty,gte=1,lte=100"`
	ReferralCode  string   `json:"referral_code,omitempty" validate:"omitempty,max=32"`
	PriceOverride *float64 `json:"price_override,omitempty" validate:"omitempty,gte=0"`
}

// BookingStatusUpdate changes the lifecycle state of an existing booking.
type BookingStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=pending paid cancelled"`
}

// BookingFilter narrows list queries. Zero values mean "any".
type BookingFilter struct {
	Status    string
	HotelID   string
	SubjectID string
}

// BookingDetails is the read model returned after creation and on detail
// fetches, with the referenced voucher and hotel resolved.
type BookingDetails struct {
	Booking Booking  `json:"booking"`
	Voucher *Voucher `json:"voucher,omitempty"`
	Hotel   *Hotel   `json:"hotel,omitempty"`
}
