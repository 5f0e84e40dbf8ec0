package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"short string unchanged", "points.csv", 20, "points.csv"},
		{"long string cut", "measurements.csv", 5, "measu..."},
		{"zero max returns as-is", "x", 0, "x"},
		{"multibyte runes kept whole", "分類データ.csv", 2, "分類..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}
