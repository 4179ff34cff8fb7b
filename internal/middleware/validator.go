package middleware

import (
	"strings"
)

// SanitizeString removes null bytes and control characters and trims.
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// SanitizeCode strips null bytes and normalizes line endings. Indentation
// and surrounding whitespace are kept.
func SanitizeCode(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.ReplaceAll(input, "\r\n", "\n")
}

// ValidateLimit validates a list limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
