// Package strings holds small text helpers for CLI output.
package strings

import "strings"

// DefaultCellMaxLen is the default maximum length for table cells.
const DefaultCellMaxLen = 60

// minTruncateLen leaves room for at least one character plus "...".
const minTruncateLen = 4

// Truncate collapses all whitespace runs into single spaces and cuts the
// result to maxLen runes, appending "..." when something was dropped.
// Operating on runes keeps multi-byte characters intact.
func Truncate(s string, maxLen int) string {
	if maxLen < minTruncateLen {
		maxLen = minTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
