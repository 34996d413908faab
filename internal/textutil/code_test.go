package textutil

import "testing"

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "   ", ""},
		{"trims and uppercases", "  ивт-21 ", "ИВТ-21"},
		{"full width digits", "２-０１", "2-01"},
		{"en dash", "Щ–01", "Щ-01"},
		{"minus sign", "S−4", "S-4"},
		{"underscore", "pi_3", "PI-3"},
		{"inner spaces", "П - 1", "П-1"},
		{"plain", "ABC", "ABC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCode(tt.input); got != tt.want {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsDigits(t *testing.T) {
	if !IsDigits("01") || IsDigits("") || IsDigits("1a") {
		t.Error("IsDigits returned unexpected result")
	}
}
