package validator

import (
	"testing"
	"time"

	"stayvoucher/pkg/logger"
	"stayvoucher/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func validVoucher() *model.Voucher {
	return &model.Voucher{
		Code:          "SUMMER20",
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: 20,
		ValidFrom:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:       time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		UsageLimit:    100,
		Status:        model.VoucherStatusActive,
	}
}

func TestValidate(t *testing.T) {
	v := NewVoucherValidator(testLogger())

	tests := []struct {
		name      string
		mutate    func(voucher *model.Voucher)
		wantError bool
	}{
		{
			name:      "valid voucher",
			mutate:    func(voucher *model.Voucher) {},
			wantError: false,
		},
		{
			name:      "missing code",
			mutate:    func(voucher *model.Voucher) { voucher.Code = "" },
			wantError: true,
		},
		{
			name:      "code too short",
			mutate:    func(voucher *model.Voucher) { voucher.Code = "AB" },
			wantError: true,
		},
		{
			name:      "unknown discount type",
			mutate:    func(voucher *model.Voucher) { voucher.DiscountType = "lottery" },
			wantError: true,
		},
		{
			name:      "percentage above 100",
			mutate:    func(voucher *model.Voucher) { voucher.DiscountValue = 120 },
			wantError: true,
		},
		{
			name: "fixed discount above 100 is fine",
			mutate: func(voucher *model.Voucher) {
				voucher.DiscountType = model.DiscountTypeFixed
				voucher.DiscountValue = 250
			},
			wantError: false,
		},
		{
			name:      "negative usage limit",
			mutate:    func(voucher *model.Voucher) { voucher.UsageLimit = -1 },
			wantError: true,
		},
		{
			name: "window reversed",
			mutate: func(voucher *model.Voucher) {
				voucher.ValidFrom = voucher.ValidTo.Add(time.Hour)
			},
			wantError: true,
		},
		{
			name:      "unknown status",
			mutate:    func(voucher *model.Voucher) { voucher.Status = "paused" },
			wantError: true,
		},
		{
			name: "hotel scope with malformed id",
			mutate: func(voucher *model.Voucher) {
				voucher.ApplicableHotels = []string{"not-an-object-id"}
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voucher := validVoucher()
			tt.mutate(voucher)
			err := v.Validate(voucher)
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := NewVoucherValidator(testLogger())

	strPtr := func(s string) *string { return &s }
	f64Ptr := func(f float64) *float64 { return &f }
	timePtr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name      string
		update    *model.VoucherUpdate
		wantError bool
	}{
		{
			name:      "empty update",
			update:    &model.VoucherUpdate{},
			wantError: false,
		},
		{
			name: "percentage above 100",
			update: &model.VoucherUpdate{
				DiscountType:  strPtr(model.DiscountTypePercentage),
				DiscountValue: f64Ptr(150),
			},
			wantError: true,
		},
		{
			name: "window reversed",
			update: &model.VoucherUpdate{
				ValidFrom: timePtr(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)),
				ValidTo:   timePtr(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)),
			},
			wantError: true,
		},
		{
			name: "unknown status",
			update: &model.VoucherUpdate{
				Status: strPtr("archived"),
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpdate(tt.update)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateUpdate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
