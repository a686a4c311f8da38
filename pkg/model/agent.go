package model

import "time"

// Agent is a referral partner. Code is unique and attached to bookings made
// with it; a miss on lookup never fails the booking.
type Agent struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name" validate:"required,max=100"`
	Code      string    `json:"code" bson:"code"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
