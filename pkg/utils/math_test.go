package utils

import "testing"

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{1.5, "1.5"},
		{-0.25, "-0.25"},
		{0.1, "0.1"},
		{1e6, "1000000"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoinFloats(t *testing.T) {
	if got := JoinFloats([]float64{1, 1.5}, "  "); got != "1  1.5" {
		t.Errorf("got %q", got)
	}
	if got := JoinFloats(nil, ","); got != "" {
		t.Errorf("empty input: got %q", got)
	}
}
