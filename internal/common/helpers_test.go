package common

import "testing"

func TestFormatKarma(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10.00"},
		{2.5, "2.50"},
		{-0.333, "-0.33"},
		{0, "0.00"},
	}

	for _, tt := range tests {
		if got := FormatKarma(tt.in); got != tt.want {
			t.Fatalf("FormatKarma(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeHTML(t *testing.T) {
	if got := EscapeHTML("<b>&x"); got != "&lt;b&gt;&amp;x" {
		t.Fatalf("unexpected escape: %q", got)
	}
}

func TestPluralizeReports(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "репорт"},
		{21, "репорт"},
		{2, "репорта"},
		{4, "репорта"},
		{22, "репорта"},
		{5, "репортов"},
		{11, "репортов"},
		{12, "репортов"},
		{14, "репортов"},
		{0, "репортов"},
		{100, "репортов"},
		{101, "репорт"},
	}

	for _, tt := range tests {
		if got := PluralizeReports(tt.n); got != tt.want {
			t.Fatalf("PluralizeReports(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
