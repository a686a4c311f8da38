package sanitizer

import (
	"reflect"
	"testing"
)

func TestSanitizeVoucherCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "summer24", "SUMMER24"},
		{"spaces stripped", "  summer 24  ", "SUMMER24"},
		{"punctuation stripped", "sum!mer@24#", "SUMMER24"},
		{"hyphen and underscore kept", "early-bird_24", "EARLY-BIRD_24"},
		{"empty", "", ""},
		{"only invalid chars", "!!!", ""},
		{"idempotent", "SUMMER24", "SUMMER24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeVoucherCode(tt.input); got != tt.expected {
				t.Errorf("SanitizeVoucherCode(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims", "  Starter Plan  ", "Starter Plan"},
		{"collapses whitespace", "Starter\t\n  Plan", "Starter Plan"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTitle(tt.input); got != tt.expected {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeSlice(t *testing.T) {
	got := SanitizeSlice([]string{" a ", "b", "A", "", "b"}, SanitizeVoucherCode)
	want := []string{"A", "B"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeSlice = %v, want %v", got, want)
	}
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{10.005, 10.01},
		{10.004, 10.0},
		{300, 300},
		{0, 0},
	}

	for _, tt := range tests {
		if got := RoundMoney(tt.input); got != tt.expected {
			t.Errorf("RoundMoney(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestClampQuantity(t *testing.T) {
	if got := ClampQuantity(0); got != 1 {
		t.Errorf("ClampQuantity(0) = %d, want 1", got)
	}
	if got := ClampQuantity(-5); got != 1 {
		t.Errorf("ClampQuantity(-5) = %d, want 1", got)
	}
	if got := ClampQuantity(3); got != 3 {
		t.Errorf("ClampQuantity(3) = %d, want 3", got)
	}
}
