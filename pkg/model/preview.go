package model

// PreviewRequest asks what a voucher would do to an order without reserving
// quota. Exactly one of VoucherID or Code must be set.
type PreviewRequest struct {
	VoucherID   string  `json:"voucher_id,omitempty" validate:"omitempty,mongodb"`
	Code        string  `json:"code,omitempty" validate:"omitempty,min=3,max=32"`
	HotelID     string  `json:"hotel_id,omitempty" validate:"omitempty,mongodb"`
	Quantity    int64   `json:"quantity,omitempty" validate:"omitempty,gte=1,lte=100"`
	OrderAmount float64 `json:"order_amount" validate:"gte=0"`
}

// PreviewResult reports the discount a voucher would grant.
type PreviewResult struct {
	VoucherID    string  `json:"voucher_id"`
	Code         string  `json:"code"`
	DiscountType string  `json:"discount_type"`
	Discount     float64 `json:"discount"`
	FinalAmount  float64 `json:"final_amount"`
}
