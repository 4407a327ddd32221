package order

import "testing"

func TestValidCard(t *testing.T) {
	tests := []struct {
		number string
		valid  bool
	}{
		{"24", true},
		{"1234", true},
		{" 24 ", true},
		{"20", false},
		{"1230", false},
		{"23", false},
		{"123456788", false},
		{"abcd", false},
		{"", false},
		{"12.4", false},
	}

	for _, tt := range tests {
		if got := ValidCard(tt.number); got != tt.valid {
			t.Errorf("ValidCard(%q): expected %v, got %v", tt.number, tt.valid, got)
		}
	}
}
