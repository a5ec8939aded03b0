package karma

import "testing"

func TestIsThankYou(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"спасибо", true},
		{"Спасибо", true},
		{"СПАСИБО!!!", true},
		{"спасибо)))", true},
		{"  спасибо  ", true},
		{"спасибо большое", false},
		{"спс", false},
		{"thanks", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsThankYou(tt.in); got != tt.want {
			t.Fatalf("IsThankYou(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
