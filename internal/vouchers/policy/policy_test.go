package policy

import (
	"testing"
	"time"

	"stayvoucher/pkg/model"
)

func f64(v float64) *float64 { return &v }

func baseVoucher() *model.Voucher {
	return &model.Voucher{
		ID:            "64f000000000000000000001",
		Code:          "SUMMER20",
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: 20,
		ValidFrom:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:       time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		UsageLimit:    100,
		Status:        model.VoucherStatusActive,
	}
}

func baseInput() Input {
	return Input{
		Now:         time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
		SubjectID:   "subj-1",
		Quantity:    1,
		OrderAmount: 500,
	}
}

func TestValidate_CheckOrder(t *testing.T) {
	// A voucher failing multiple checks must report the first one in order.
	tests := []struct {
		name   string
		mutate func(v *model.Voucher, in *Input)
		want   Reason
	}{
		{
			name: "inactive wins over expired",
			mutate: func(v *model.Voucher, in *Input) {
				v.Status = model.VoucherStatusInactive
				in.Now = v.ValidTo.Add(24 * time.Hour)
			},
			want: ReasonInactive,
		},
		{
			name: "not yet valid wins over hotel scope",
			mutate: func(v *model.Voucher, in *Input) {
				in.Now = v.ValidFrom.Add(-time.Hour)
				v.ApplicableHotels = []string{"hotel-A"}
				in.HotelID = "hotel-B"
			},
			want: ReasonNotYetValid,
		},
		{
			name: "expired wins over usage limit",
			mutate: func(v *model.Voucher, in *Input) {
				in.Now = v.ValidTo.Add(time.Hour)
				v.UsedCount = v.UsageLimit
			},
			want: ReasonExpired,
		},
		{
			name: "hotel scope wins over usage limit",
			mutate: func(v *model.Voucher, in *Input) {
				v.ApplicableHotels = []string{"hotel-A"}
				in.HotelID = "hotel-B"
				v.UsedCount = v.UsageLimit
			},
			want: ReasonHotelNotApplicable,
		},
		{
			name: "usage limit wins over per-subject limit",
			mutate: func(v *model.Voucher, in *Input) {
				v.UsedCount = v.UsageLimit
				v.PerSubjectLimit = 1
				v.UsedBy = []model.SubjectUsage{{SubjectID: "subj-1", Count: 1}}
			},
			want: ReasonUsageLimitReached,
		},
		{
			name: "per-subject limit wins over min order value",
			mutate: func(v *model.Voucher, in *Input) {
				v.PerSubjectLimit = 1
				v.UsedBy = []model.SubjectUsage{{SubjectID: "subj-1", Count: 1}}
				v.MinOrderValue = 1000
			},
			want: ReasonPerSubjectLimit,
		},
		{
			name: "min order value last",
			mutate: func(v *model.Voucher, in *Input) {
				v.MinOrderValue = 1000
			},
			want: ReasonMinOrderValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := baseVoucher()
			in := baseInput()
			tt.mutate(v, &in)
			rej := Validate(v, in)
			if rej == nil {
				t.Fatal("expected rejection, got nil")
			}
			if rej.Reason != tt.want {
				t.Errorf("reason = %q, want %q", rej.Reason, tt.want)
			}
		})
	}
}

func TestValidate_Accepts(t *testing.T) {
	v := baseVoucher()
	if rej := Validate(v, baseInput()); rej != nil {
		t.Fatalf("expected nil rejection, got %q", rej.Reason)
	}
}

func TestValidate_QuantityCountsAgainstCaps(t *testing.T) {
	v := baseVoucher()
	v.UsageLimit = 10
	v.UsedCount = 8
	in := baseInput()
	in.Quantity = 3

	rej := Validate(v, in)
	if rej == nil || rej.Reason != ReasonUsageLimitReached {
		t.Fatalf("expected usage_limit_reached, got %v", rej)
	}

	in.Quantity = 2
	if rej := Validate(v, in); rej != nil {
		t.Fatalf("quantity exactly filling the cap should pass, got %q", rej.Reason)
	}
}

func TestValidate_PerSubjectLimitForNewSubject(t *testing.T) {
	v := baseVoucher()
	v.PerSubjectLimit = 2
	in := baseInput()
	in.SubjectID = "fresh"
	in.Quantity = 3

	rej := Validate(v, in)
	if rej == nil || rej.Reason != ReasonPerSubjectLimit {
		t.Fatalf("expected per_subject_limit_reached, got %v", rej)
	}
}

func TestValidate_EmptyHotelScopeAppliesEverywhere(t *testing.T) {
	v := baseVoucher()
	in := baseInput()
	in.HotelID = "any-hotel"
	if rej := Validate(v, in); rej != nil {
		t.Fatalf("empty scope should apply to all hotels, got %q", rej.Reason)
	}
}

func TestValidate_ScopedVoucherWithoutHotel(t *testing.T) {
	v := baseVoucher()
	v.ApplicableHotels = []string{"hotel-A"}
	in := baseInput()
	in.HotelID = ""
	rej := Validate(v, in)
	if rej == nil || rej.Reason != ReasonHotelNotApplicable {
		t.Fatalf("scoped voucher with no hotel should be rejected, got %v", rej)
	}
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name    string
		voucher model.Voucher
		amount  float64
		want    float64
	}{
		{
			name:    "percentage plain",
			voucher: model.Voucher{DiscountType: model.DiscountTypePercentage, DiscountValue: 20},
			amount:  500,
			want:    100,
		},
		{
			name:    "percentage capped by max discount",
			voucher: model.Voucher{DiscountType: model.DiscountTypePercentage, DiscountValue: 20, MaxDiscount: f64(50)},
			amount:  500,
			want:    50,
		},
		{
			name:    "fixed plain",
			voucher: model.Voucher{DiscountType: model.DiscountTypeFixed, DiscountValue: 75},
			amount:  500,
			want:    75,
		},
		{
			name:    "fixed larger than amount clamps to amount",
			voucher: model.Voucher{DiscountType: model.DiscountTypeFixed, DiscountValue: 75},
			amount:  40,
			want:    40,
		},
		{
			name:    "fixed capped by max discount",
			voucher: model.Voucher{DiscountType: model.DiscountTypeFixed, DiscountValue: 75, MaxDiscount: f64(30)},
			amount:  500,
			want:    30,
		},
		{
			name:    "hundred percent",
			voucher: model.Voucher{DiscountType: model.DiscountTypePercentage, DiscountValue: 100},
			amount:  250,
			want:    250,
		},
		{
			name:    "zero amount",
			voucher: model.Voucher{DiscountType: model.DiscountTypePercentage, DiscountValue: 20},
			amount:  0,
			want:    0,
		},
		{
			name:    "unknown type discounts nothing",
			voucher: model.Voucher{DiscountType: "mystery", DiscountValue: 20},
			amount:  500,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(&tt.voucher, tt.amount)
			if got != tt.want {
				t.Errorf("ComputeDiscount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFinalAmount_NeverNegative(t *testing.T) {
	v := &model.Voucher{DiscountType: model.DiscountTypeFixed, DiscountValue: 9999}
	got := FinalAmount(v, 120)
	if got != 0 {
		t.Errorf("FinalAmount() = %v, want 0", got)
	}
}
