package model

import "time"

// Hotel is the property a booking redeems against. Managed out of band;
// this service only reads it.
type Hotel struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name" validate:"required,max=100"`
	City      string    `json:"city,omitempty" bson:"city,omitempty" validate:"omitempty,max=60"`
	Address   string    `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=200"`
	Active    bool      `json:"active" bson:"active"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
