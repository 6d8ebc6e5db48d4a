package extract

import "strings"

// NormalizeText collapses every whitespace run (newlines included) to a single
// space and trims the ends. Applying it twice yields the same string as
// applying it once.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
