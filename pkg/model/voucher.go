package model

import "time"

const (
	VoucherStatusActive   = "active"
	VoucherStatusInactive = "inactive"
	VoucherStatusExpired  = "expired"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// SubjectUsage tracks how many quota units a single subject has reserved on a
// voucher. One entry exists per subject that ever reserved.
type SubjectUsage struct {
	SubjectID  string    `json:"subject_id" bson:"subject_id"`
	Count      int64     `json:"count" bson:"count"`
	LastUsedAt time.Time `json:"last_used_at" bson:"last_used_at"`
}

// Voucher is the durable quota-bearing discount definition. UsedCount and
// UsedBy are mutated exclusively through the conditional updates in the
// voucher repository; `used_count == sum(used_by[].count)` holds after every
// successful mutation.
type Voucher struct {
	ID              string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Code            string         `json:"code" bson:"code" validate:"required,min=3,max=32"`
	Title           string         `json:"title,omitempty" bson:"title,omitempty" validate:"omitempty,max=100"`
	Description     string         `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=500"`
	DiscountType    string         `json:"discount_type" bson:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue   float64        `json:"discount_value" bson:"discount_value" validate:"gte=0"`
	MinOrderValue   float64        `json:"min_order_value" bson:"min_order_value" validate:"gte=0"`
	MaxDiscount     *float64       `json:"max_discount,omitempty" bson:"max_discount,omitempty" validate:"omitempty,gt=0"`
	ValidFrom       time.Time      `json:"valid_from" bson:"valid_from"`
	ValidTo         time.Time      `json:"valid_to" bson:"valid_to" validate:"required"`
	UsageLimit      int64          `json:"usage_limit" bson:"usage_limit" validate:"gte=0"`             // 0 = unlimited
	PerSubjectLimit int64          `json:"per_subject_limit" bson:"per_subject_limit" validate:"gte=0"` // 0 = unlimited
	UsedCount       int64          `json:"used_count" bson:"used_count"`
	UsedBy          []SubjectUsage `json:"used_by,omitempty" bson:"used_by,omitempty"`
	ApplicableHotels []string      `json:"applicable_hotels,omitempty" bson:"applicable_hotels,omitempty" validate:"omitempty,dive,mongodb"` // empty = all hotels
	Status          string         `json:"status" bson:"status" validate:"required,oneof=active inactive expired"`
	Price           *float64       `json:"price,omitempty" bson:"price,omitempty" validate:"omitempty,gte=0"` // purchase price per unit
	CreatedBy       string         `json:"created_by,omitempty" bson:"created_by,omitempty" validate:"omitempty,mongodb"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
}

// UsageFor returns the subject's usage entry, or nil when the subject has
// never reserved on this voucher.
func (v *Voucher) UsageFor(subjectID string) *SubjectUsage {
	for i := range v.UsedBy {
		if v.UsedBy[i].SubjectID == subjectID {
			return &v.UsedBy[i]
		}
	}
	return nil
}

// Exhausted reports whether the global cap has been reached.
func (v *Voucher) Exhausted() bool {
	return v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit
}

// VoucherFilter narrows catalog list queries. Zero values mean "any".
type VoucherFilter struct {
	Status  string
	Code    string
	HotelID string
}

// VoucherUpdate carries the administratively editable fields. Quota counters
// are absent on purpose.
type VoucherUpdate struct {
	Title            *string    `json:"title,omitempty" validate:"omitempty,max=100"`
	Description      *string    `json:"description,omitempty" validate:"omitempty,max=500"`
	DiscountType     *string    `json:"discount_type,omitempty" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue    *float64   `json:"discount_value,omitempty" validate:"omitempty,gte=0"`
	MinOrderValue    *float64   `json:"min_order_value,omitempty" validate:"omitempty,gte=0"`
	MaxDiscount      *float64   `json:"max_discount,omitempty" validate:"omitempty,gt=0"`
	ValidFrom        *time.Time `json:"valid_from,omitempty"`
	ValidTo          *time.Time `json:"valid_to,omitempty"`
	UsageLimit       *int64     `json:"usage_limit,omitempty" validate:"omitempty,gte=0"`
	PerSubjectLimit  *int64     `json:"per_subject_limit,omitempty" validate:"omitempty,gte=0"`
	ApplicableHotels []string   `json:"applicable_hotels,omitempty" validate:"omitempty,dive,mongodb"`
	Status           *string    `json:"status,omitempty" validate:"omitempty,oneof=active inactive expired"`
	Price            *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
}
