package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if !errors.Is(wrapped, originalErr) {
		t.Errorf("expected errors.Is to unwrap to original error")
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "resource not found",
			},
			expected: "NOT_FOUND: resource not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPolicyRejected(t *testing.T) {
	err := PolicyRejected("expired", "Voucher offer expired")

	if err.Code != CodePolicyRejected {
		t.Errorf("expected code %s, got %s", CodePolicyRejected, err.Code)
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, err.HTTPStatus)
	}
	if reason := err.Details["reason"]; reason != "expired" {
		t.Errorf("expected reason detail 'expired', got %v", reason)
	}
}

func TestQuotaExceeded(t *testing.T) {
	err := QuotaExceeded("Voucher usage limit exceeded")

	if err.Code != CodeQuotaExceeded {
		t.Errorf("expected code %s, got %s", CodeQuotaExceeded, err.Code)
	}
	if err.HTTPStatus != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, err.HTTPStatus)
	}
}

func TestIsCode(t *testing.T) {
	if !IsCode(QuotaExceeded("full"), CodeQuotaExceeded) {
		t.Error("expected IsCode to match QUOTA_EXCEEDED")
	}
	if IsCode(errors.New("plain"), CodeQuotaExceeded) {
		t.Error("expected IsCode to reject non-AppError")
	}
	if IsCode(nil, CodeQuotaExceeded) {
		t.Error("expected IsCode to reject nil")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Voucher")
	if got := AsAppError(appErr); got != appErr {
		t.Error("expected AsAppError to return the same AppError")
	}

	plain := errors.New("boom")
	converted := AsAppError(plain)
	if converted.Code != CodeInternal {
		t.Errorf("expected plain errors to convert to %s, got %s", CodeInternal, converted.Code)
	}
	if converted.Err != plain {
		t.Error("expected converted error to wrap the original")
	}
}
