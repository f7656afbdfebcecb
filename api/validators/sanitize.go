package validators

import "strings"

// SanitizeString trims input, collapses inner whitespace runs and caps the
// result at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.Join(strings.Fields(input), " ")
	if maxLen > 0 {
		runes := []rune(trimmed)
		if len(runes) > maxLen {
			return string(runes[:maxLen])
		}
	}
	return trimmed
}
