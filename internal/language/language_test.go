package language

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// 2-letter codes pass through
		{"en", "en"},
		{"EN", "en"},
		{" es ", "es"},
		// 3-letter codes convert
		{"eng", "en"},
		{"fre", "fr"},
		{"ger", "de"},
		{"chi", "zh"},
		{"dut", "nl"},
		// Word forms
		{"english", "en"},
		{"Deutsch", "de"},
		{"Français", "fr"},
		// BCP 47 tags outside the table
		{"pt-BR", "pt"},
		{"zh-Hant-TW", "zh"},
		{"tr", "tr"},
		{"ukr", "uk"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q): %v", tt.input, err)
			}
			if got != tt.expected {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeRejectsUnknown(t *testing.T) {
	for _, input := range []string{"", "   ", "klingon-ish!", "und", "UND", "mul", "zxx", "mis", "und-US"} {
		if got, err := Normalize(input); err == nil {
			t.Fatalf("Normalize(%q) = %q, expected error", input, got)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"spa", "Spanish"},
		{"german", "German"},
		{"", "Unknown"},
		{"tr", "TR"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Fatalf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestOptionsReturnsCopy(t *testing.T) {
	opts := Options()
	if len(opts) == 0 || opts[0].Code != "en" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	opts[0].Code = "xx"
	if Options()[0].Code != "en" {
		t.Fatal("Options must return a copy")
	}
}
