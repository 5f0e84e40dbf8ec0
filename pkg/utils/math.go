package utils

import (
	"strconv"
	"strings"
)

// FormatFloat formats v with the fewest digits that read back to the same value.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// JoinFloats formats values and joins them with sep.
func JoinFloats(values []float64, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = FormatFloat(v)
	}
	return strings.Join(parts, sep)
}
