// Package utils provides shared utilities for text and logging.
package utils

import (
	"strings"
	"unicode/utf8"
)

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen]) + "..."
}

// Snippet collapses runs of whitespace to single spaces and truncates the result to maxLen
// runes without an ellipsis. Used to build inbox previews from full message bodies.
func Snippet(s string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if maxLen <= 0 || utf8.RuneCountInString(collapsed) <= maxLen {
		return collapsed
	}
	return strings.TrimSpace(string([]rune(collapsed)[:maxLen]))
}
