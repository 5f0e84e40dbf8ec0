// Package utils provides shared helpers for logging and formatting.
package utils

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
