package utils

import "unicode/utf8"

// Truncate shortens s to max runes for log previews, appending "..." when
// anything was cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
